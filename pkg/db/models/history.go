package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalSale is the denormalized snapshot of a sale and its visit context.
type HistoricalSale struct {
	ID                   int64                `gorm:"column:id_historial_venta;primaryKey;autoIncrement"`
	SaleID               int64                `gorm:"column:id_venta;not null;uniqueIndex"`
	RouteID              *int64               `gorm:"column:id_ruta;index"`
	ClientNIT            string               `gorm:"column:nit_cliente;size:9;not null"`
	SellerDPI            string               `gorm:"column:dpi_vendedor;size:13;not null"`
	SaleDate             time.Time            `gorm:"column:fecha_venta;not null"`
	SaleTotal            decimal.Decimal      `gorm:"column:total_venta;type:numeric(14,2);not null"`
	VisitOrder           *int                 `gorm:"column:orden_visita"`
	VisitOutcome         *string              `gorm:"column:resultado_visita;size:20"`
	VisitNotes           *string              `gorm:"column:observaciones_visita;size:500"`
	EstimatedKM          *decimal.Decimal     `gorm:"column:kilometros_estimados;type:numeric(8,2)"`
	PlannedRouteMinutes  *int                 `gorm:"column:tiempo_planificado_total_min"`
	AllowedClientMinutes *int                 `gorm:"column:tiempo_cliente_asignado_min"`
	VisitStartedAt       *time.Time           `gorm:"column:hora_inicio_visita"`
	VisitEndedAt         *time.Time           `gorm:"column:hora_fin_visita"`
	ActualVisitMinutes   *int                 `gorm:"column:tiempo_real_visita_min"`
	ActualRouteMinutes   *int                 `gorm:"column:tiempo_real_ruta_min"`
	RecordedAt           time.Time            `gorm:"column:registrado_en;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:actualizado_en;autoUpdateTime"`
	Lines                []HistoricalSaleLine `gorm:"foreignKey:HistoricalSaleID;references:ID;constraint:OnDelete:CASCADE"`
}

func (HistoricalSale) TableName() string { return "historial_ventas" }

// HistoricalSaleLine keeps the product description as it was when archived.
type HistoricalSaleLine struct {
	ID                 int64           `gorm:"column:id_historial_detalle;primaryKey;autoIncrement"`
	HistoricalSaleID   int64           `gorm:"column:id_historial_venta;not null;index"`
	Line               int             `gorm:"column:linea;not null"`
	ProductCode        string          `gorm:"column:codigo_producto;size:30;not null"`
	ProductDescription string          `gorm:"column:descripcion_producto;size:200;not null"`
	Quantity           int             `gorm:"column:cantidad;not null"`
	UnitPrice          decimal.Decimal `gorm:"column:precio_unitario;type:numeric(12,2);not null"`
	Subtotal           decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
	RecordedAt         time.Time       `gorm:"column:registrado_en;autoCreateTime"`
}

func (HistoricalSaleLine) TableName() string { return "historial_detalle_venta" }
