package product

import (
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ProductDTO is the API shape of a product; prices print with two decimals.
type ProductDTO struct {
	Code        string    `json:"codigo"`
	Description string    `json:"descripcion"`
	Color       *string   `json:"color"`
	UnitPrice   string    `json:"precio_unitario"`
	Packaging   string    `json:"presentacion"`
	CreatedAt   time.Time `json:"creado_en"`
	UpdatedAt   time.Time `json:"actualizado_en"`
}

// ProductInput is accepted on create and full update. The packaging is
// referenced by code through presentacion_id.
type ProductInput struct {
	Code        string          `json:"codigo" validate:"required,max=30"`
	Description string          `json:"descripcion" validate:"required,max=200"`
	Color       *string         `json:"color" validate:"omitempty,max=50"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	PackagingID string          `json:"presentacion_id" validate:"required,max=15"`
}

// ProductPatch holds optional mutation values for a product.
type ProductPatch struct {
	Description *string          `json:"descripcion"`
	Color       *string          `json:"color"`
	UnitPrice   *decimal.Decimal `json:"precio_unitario"`
	PackagingID *string          `json:"presentacion_id"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		Code:        p.Code,
		Description: p.Description,
		Color:       p.Color,
		UnitPrice:   p.UnitPrice.StringFixed(2),
		Packaging:   p.Packaging,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (p ProductPatch) merge(existing *models.Product) ProductInput {
	in := ProductInput{
		Code:        existing.Code,
		Description: existing.Description,
		Color:       existing.Color,
		UnitPrice:   existing.UnitPrice,
		PackagingID: existing.Packaging,
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Color != nil {
		in.Color = p.Color
	}
	if p.UnitPrice != nil {
		in.UnitPrice = *p.UnitPrice
	}
	if p.PackagingID != nil {
		in.PackagingID = *p.PackagingID
	}
	return in
}
