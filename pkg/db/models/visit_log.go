package models

import (
	"time"

	"gorm.io/datatypes"
)

// VisitLog is a free-form record of a seller visiting a client.
type VisitLog struct {
	ID                int64          `gorm:"column:id;primaryKey;autoIncrement"`
	SellerDPI         string         `gorm:"column:dpi_vendedor;size:13;not null;index"`
	ClientNIT         string         `gorm:"column:nit_cliente;size:9;not null"`
	Date              time.Time      `gorm:"column:fecha;not null"`
	Result            string         `gorm:"column:resultado;size:20;not null"`
	DeliveredProducts datatypes.JSON `gorm:"column:productos_entregados;not null"`
	PhotoURL          string         `gorm:"column:evidencia_foto;size:200;not null;default:''"`
	Notes             string         `gorm:"column:notas;not null;default:''"`
}

func (VisitLog) TableName() string { return "registro_visitas" }
