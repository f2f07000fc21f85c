package clients

import (
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
)

// DefaultCreditStatus is assigned when a client is saved without one.
const DefaultCreditStatus = "B"

type ClientDTO struct {
	NIT          string    `json:"nit"`
	Name         string    `json:"nombre"`
	Address      *string   `json:"direccion"`
	Email        *string   `json:"correo_electronico"`
	CreditStatus string    `json:"estatus_credito"`
	CreatedAt    time.Time `json:"creado_en"`
	UpdatedAt    time.Time `json:"actualizado_en"`
}

// ClientInput is the full representation accepted on create and replace.
type ClientInput struct {
	NIT          string  `json:"nit" validate:"required,max=9,digits"`
	Name         string  `json:"nombre" validate:"required,max=150"`
	Address      *string `json:"direccion" validate:"omitempty,max=250"`
	Email        *string `json:"correo_electronico" validate:"omitempty,max=150,email"`
	CreditStatus string  `json:"estatus_credito" validate:"omitempty,max=2"`
}

// ClientPatch carries the fields of a partial update; nil leaves a field as is.
type ClientPatch struct {
	Name         *string `json:"nombre"`
	Address      *string `json:"direccion"`
	Email        *string `json:"correo_electronico"`
	CreditStatus *string `json:"estatus_credito"`
}

func FromModel(c *models.Client) *ClientDTO {
	if c == nil {
		return nil
	}
	return &ClientDTO{
		NIT:          c.NIT,
		Name:         c.Name,
		Address:      c.Address,
		Email:        c.Email,
		CreditStatus: c.CreditStatus,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (in ClientInput) normalized() ClientInput {
	in.NIT = trim(in.NIT)
	in.Name = trim(in.Name)
	in.Address = optional(in.Address)
	in.Email = optional(in.Email)
	in.CreditStatus = trim(in.CreditStatus)
	if in.CreditStatus == "" {
		in.CreditStatus = DefaultCreditStatus
	}
	return in
}

func (in ClientInput) apply(c *models.Client) {
	c.NIT = in.NIT
	c.Name = in.Name
	c.Address = in.Address
	c.Email = in.Email
	c.CreditStatus = in.CreditStatus
}

// merge produces the full input that results from applying p over c.
func (p ClientPatch) merge(c *models.Client) ClientInput {
	in := ClientInput{
		NIT:          c.NIT,
		Name:         c.Name,
		Address:      c.Address,
		Email:        c.Email,
		CreditStatus: c.CreditStatus,
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Address != nil {
		in.Address = p.Address
	}
	if p.Email != nil {
		in.Email = p.Email
	}
	if p.CreditStatus != nil {
		in.CreditStatus = *p.CreditStatus
	}
	return in
}
