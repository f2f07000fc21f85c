package sellers

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// SellerDTO adds the derived success label to the stored percentage.
type SellerDTO struct {
	DPI          string              `json:"dpi"`
	Name         string              `json:"nombre"`
	Email        *string             `json:"correo_electronico"`
	Phone        *string             `json:"telefono"`
	Salary       string              `json:"sueldo"`
	SuccessRate  *int                `json:"nivel_exito_porcent"`
	SuccessLevel *enums.SuccessLevel `json:"nivel_exito"`
	CreatedAt    time.Time           `json:"creado_en"`
	UpdatedAt    time.Time           `json:"actualizado_en"`
}

type SellerInput struct {
	DPI         string          `json:"dpi" validate:"required,max=13,digits"`
	Name        string          `json:"nombre" validate:"required,max=150"`
	Email       *string         `json:"correo_electronico" validate:"omitempty,max=150,email"`
	Phone       *string         `json:"telefono" validate:"omitempty,max=30"`
	Salary      decimal.Decimal `json:"sueldo"`
	SuccessRate *int            `json:"nivel_exito_porcent" validate:"omitempty,gte=0,lte=100"`
}

type SellerPatch struct {
	Name        *string          `json:"nombre"`
	Email       *string          `json:"correo_electronico"`
	Phone       *string          `json:"telefono"`
	Salary      *decimal.Decimal `json:"sueldo"`
	SuccessRate *int             `json:"nivel_exito_porcent"`
}

type VisitDTO struct {
	ID                int64           `json:"id"`
	SellerDPI         string          `json:"dpi_vendedor"`
	ClientNIT         string          `json:"nit_cliente"`
	Date              time.Time       `json:"fecha"`
	Result            string          `json:"resultado"`
	DeliveredProducts json.RawMessage `json:"productos_entregados"`
	PhotoURL          string          `json:"evidencia_foto"`
	Notes             string          `json:"notas"`
}

// VisitInput records one visit; the seller always comes from the path.
type VisitInput struct {
	ClientNIT         string     `json:"nit_cliente" validate:"required,max=9"`
	Date              *time.Time `json:"fecha"`
	Result            string     `json:"resultado" validate:"required"`
	DeliveredProducts []any      `json:"productos_entregados"`
	PhotoURL          string     `json:"evidencia_foto" validate:"omitempty,max=200"`
	Notes             string     `json:"notas"`
}

func FromModel(s *models.Seller) *SellerDTO {
	if s == nil {
		return nil
	}
	return &SellerDTO{
		DPI:          s.DPI,
		Name:         s.Name,
		Email:        s.Email,
		Phone:        s.Phone,
		Salary:       s.Salary.StringFixed(2),
		SuccessRate:  s.SuccessRate,
		SuccessLevel: enums.SuccessLevelFor(s.SuccessRate),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func visitFromModel(v *models.VisitLog) VisitDTO {
	products := json.RawMessage(v.DeliveredProducts)
	if len(products) == 0 {
		products = json.RawMessage("[]")
	}
	return VisitDTO{
		ID:                v.ID,
		SellerDPI:         v.SellerDPI,
		ClientNIT:         v.ClientNIT,
		Date:              v.Date,
		Result:            v.Result,
		DeliveredProducts: products,
		PhotoURL:          v.PhotoURL,
		Notes:             v.Notes,
	}
}

func (p SellerPatch) merge(s *models.Seller) SellerInput {
	in := SellerInput{
		DPI:         s.DPI,
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.Phone,
		Salary:      s.Salary,
		SuccessRate: s.SuccessRate,
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Email != nil {
		in.Email = p.Email
	}
	if p.Phone != nil {
		in.Phone = p.Phone
	}
	if p.Salary != nil {
		in.Salary = *p.Salary
	}
	if p.SuccessRate != nil {
		in.SuccessRate = p.SuccessRate
	}
	return in
}
