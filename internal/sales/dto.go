package sales

import (
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

type SaleDTO struct {
	ID        int64         `json:"id_venta"`
	Date      time.Time     `json:"fecha"`
	ClientNIT string        `json:"nit_cliente"`
	RouteID   *int64        `json:"id_ruta"`
	Total     string        `json:"total"`
	Lines     []SaleLineDTO `json:"detalles"`
	CreatedAt time.Time     `json:"creado_en"`
	UpdatedAt time.Time     `json:"actualizado_en"`
}

type SaleLineDTO struct {
	Line        int     `json:"linea"`
	ProductCode *string `json:"codigo_producto"`
	Quantity    int     `json:"cantidad"`
	UnitPrice   string  `json:"precio_unitario"`
	Subtotal    string  `json:"subtotal"`
}

// SaleInput creates a sale. When Lines is non-empty the total is derived
// from them and Total is ignored.
type SaleInput struct {
	Date      *time.Time       `json:"fecha"`
	ClientNIT string           `json:"nit_cliente" validate:"required,max=9"`
	RouteID   *int64           `json:"id_ruta"`
	Total     *decimal.Decimal `json:"total"`
	Lines     []SaleLineInput  `json:"detalles" validate:"-"`
}

// SaleLineInput falls back to the product's current price when UnitPrice is
// omitted, and to its position when Line is omitted.
type SaleLineInput struct {
	Line        *int             `json:"linea" validate:"omitempty,gte=1"`
	ProductCode string           `json:"codigo_producto" validate:"required,max=30"`
	Quantity    int              `json:"cantidad" validate:"required,gte=1"`
	UnitPrice   *decimal.Decimal `json:"precio_unitario"`
}

func FromModel(s *models.Sale) SaleDTO {
	lines := make([]SaleLineDTO, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, SaleLineDTO{
			Line:        line.Line,
			ProductCode: line.ProductCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Subtotal:    line.Subtotal().StringFixed(2),
		})
	}
	return SaleDTO{
		ID:        s.ID,
		Date:      s.Date,
		ClientNIT: s.ClientNIT,
		RouteID:   s.RouteID,
		Total:     s.Total.StringFixed(2),
		Lines:     lines,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromModels(rows []models.Sale) []SaleDTO {
	out := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
