package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Route is a planned sequence of client visits for one seller on one date.
type Route struct {
	ID             int64            `gorm:"column:id_ruta;primaryKey;autoIncrement"`
	SellerDPI      string           `gorm:"column:dpi_vendedor;size:13;not null;index"`
	Date           time.Time        `gorm:"column:fecha;type:date;not null"`
	Name           *string          `gorm:"column:nombre;size:150"`
	EstimatedKM    *decimal.Decimal `gorm:"column:kilometros_estimados;type:numeric(8,2)"`
	PlannedMinutes *int             `gorm:"column:tiempo_planificado_min"`
	ActualMinutes  *int             `gorm:"column:tiempo_real_min"`
	OverallResult  *string          `gorm:"column:resultado_global;size:50"`
	Status         string           `gorm:"column:estado;size:20;not null;default:PENDIENTE"`
	CreatedAt      time.Time        `gorm:"column:creado_en;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:actualizado_en;autoUpdateTime"`
	Seller         *Seller          `gorm:"foreignKey:SellerDPI;references:DPI"`
	Assignments    []RouteClient    `gorm:"foreignKey:RouteID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Route) TableName() string { return "rutas" }

// RouteClient is one client's position within a route.
type RouteClient struct {
	ID              int64          `gorm:"column:id;primaryKey;autoIncrement"`
	RouteID         int64          `gorm:"column:id_ruta;not null;uniqueIndex:ruta_clientes_ruta_cliente;uniqueIndex:ruta_clientes_ruta_orden"`
	ClientNIT       string         `gorm:"column:nit_cliente;size:9;not null;uniqueIndex:ruta_clientes_ruta_cliente"`
	VisitOrder      int            `gorm:"column:orden_visita;not null;uniqueIndex:ruta_clientes_ruta_orden"`
	TimeAllowanceID int16          `gorm:"column:id_tiempo_cliente;not null"`
	StartedAt       *time.Time     `gorm:"column:hora_inicio"`
	EndedAt         *time.Time     `gorm:"column:hora_fin"`
	Outcome         string         `gorm:"column:resultado_visita;size:20;not null;default:PENDIENTE"`
	Notes           *string        `gorm:"column:observaciones;size:500"`
	Client          *Client        `gorm:"foreignKey:ClientNIT;references:NIT"`
	TimeAllowance   *TimeAllowance `gorm:"foreignKey:TimeAllowanceID;references:ID"`
}

func (RouteClient) TableName() string { return "ruta_clientes" }
