package models

import "time"

// Client is a customer identified by its tax id (NIT).
type Client struct {
	NIT          string    `gorm:"column:nit;size:9;primaryKey"`
	Name         string    `gorm:"column:nombre;size:150;not null"`
	Address      *string   `gorm:"column:direccion;size:250"`
	Email        *string   `gorm:"column:correo_electronico;size:150;uniqueIndex"`
	CreditStatus string    `gorm:"column:estatus_credito;size:2;not null;default:B"`
	CreatedAt    time.Time `gorm:"column:creado_en;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:actualizado_en;autoUpdateTime"`
}

func (Client) TableName() string { return "clientes" }
