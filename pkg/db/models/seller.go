package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seller is a member of the sales team identified by DPI.
type Seller struct {
	DPI         string          `gorm:"column:dpi;size:13;primaryKey"`
	Name        string          `gorm:"column:nombre;size:150;not null"`
	Email       *string         `gorm:"column:correo_electronico;size:150;uniqueIndex"`
	Phone       *string         `gorm:"column:telefono;size:30"`
	Salary      decimal.Decimal `gorm:"column:sueldo;type:numeric(12,2);not null"`
	SuccessRate *int            `gorm:"column:nivel_exito"`
	CreatedAt   time.Time       `gorm:"column:creado_en;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:actualizado_en;autoUpdateTime"`
}

func (Seller) TableName() string { return "vendedores" }
