package models

import "time"

// PhotoEvidence links an uploaded image or external URL to a client, route or sale.
type PhotoEvidence struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Image       *string   `gorm:"column:imagen;size:255"`
	URL         *string   `gorm:"column:url;size:1024"`
	Description *string   `gorm:"column:descripcion;size:300"`
	ClientNIT   *string   `gorm:"column:nit_cliente;size:9;index"`
	RouteID     *int64    `gorm:"column:id_ruta;index"`
	SaleID      *int64    `gorm:"column:id_venta;index"`
	RecordedAt  time.Time `gorm:"column:registrada_en;autoCreateTime"`
	Client      *Client   `gorm:"foreignKey:ClientNIT;references:NIT"`
	Route       *Route    `gorm:"foreignKey:RouteID;references:ID"`
	Sale        *Sale     `gorm:"foreignKey:SaleID;references:ID"`
}

func (PhotoEvidence) TableName() string { return "evidencias_fotograficas" }
