package models

// CreditStatus is a client credit rating code (A, B, C...).
type CreditStatus struct {
	Code        string  `gorm:"column:estatus_credito;size:2;primaryKey"`
	Description *string `gorm:"column:descripcion;size:100"`
}

func (CreditStatus) TableName() string { return "cat_estatus_credito" }

// Packaging is the presentation a product is sold in.
type Packaging struct {
	Code        string  `gorm:"column:presentacion;size:15;primaryKey"`
	Description *string `gorm:"column:descripcion;size:100"`
}

func (Packaging) TableName() string { return "cat_presentacion" }

// VisitOutcome is the recorded result of visiting a client.
type VisitOutcome struct {
	Code        string  `gorm:"column:resultado_visita;size:20;primaryKey"`
	Description *string `gorm:"column:descripcion;size:100"`
}

func (VisitOutcome) TableName() string { return "cat_resultado_visita" }

// TimeAllowance is the planned time budget for a client visit.
type TimeAllowance struct {
	ID          int16  `gorm:"column:id_tiempo_cliente;primaryKey;autoIncrement:false"`
	Minutes     int    `gorm:"column:minutos;not null"`
	Description string `gorm:"column:descripcion;size:50;not null"`
}

func (TimeAllowance) TableName() string { return "cat_tiempo_cliente" }
