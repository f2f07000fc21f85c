package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a sale header, optionally tied to a route.
type Sale struct {
	ID        int64           `gorm:"column:id_venta;primaryKey;autoIncrement"`
	Date      time.Time       `gorm:"column:fecha;not null"`
	ClientNIT string          `gorm:"column:nit_cliente;size:9;not null;index"`
	RouteID   *int64          `gorm:"column:id_ruta;index"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null"`
	CreatedAt time.Time       `gorm:"column:creado_en;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:actualizado_en;autoUpdateTime"`
	Lines     []SaleLine      `gorm:"foreignKey:SaleID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Sale) TableName() string { return "ventas" }

// SaleLine is a line item; the product reference survives product deletion as null.
type SaleLine struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	SaleID      int64           `gorm:"column:id_venta;not null;uniqueIndex:detalle_venta_venta_linea"`
	Line        int             `gorm:"column:linea;not null;uniqueIndex:detalle_venta_venta_linea"`
	ProductCode *string         `gorm:"column:codigo_producto;size:30"`
	Quantity    int             `gorm:"column:cantidad;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:precio_unitario;type:numeric(12,2);not null"`
}

func (SaleLine) TableName() string { return "detalle_venta" }

// Subtotal is quantity times unit price.
func (l SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
