package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item priced per packaging unit.
type Product struct {
	Code        string          `gorm:"column:codigo;size:30;primaryKey"`
	Description string          `gorm:"column:descripcion;size:200;not null"`
	Color       *string         `gorm:"column:color;size:50"`
	UnitPrice   decimal.Decimal `gorm:"column:precio_unitario;type:numeric(12,2);not null"`
	Packaging   string          `gorm:"column:presentacion;size:15;not null"`
	CreatedAt   time.Time       `gorm:"column:creado_en;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:actualizado_en;autoUpdateTime"`
}

func (Product) TableName() string { return "productos" }
