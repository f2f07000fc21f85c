package evidence

import (
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
)

type EvidenceDTO struct {
	ID          int64     `json:"id"`
	ImageURL    *string   `json:"imagen_url"`
	URL         *string   `json:"url"`
	Description *string   `json:"descripcion"`
	ClientNIT   *string   `json:"cliente"`
	ClientName  *string   `json:"cliente_nombre"`
	RouteID     *int64    `json:"ruta"`
	RouteName   *string   `json:"ruta_nombre"`
	SaleID      *int64    `json:"venta"`
	SaleTotal   *string   `json:"venta_total"`
	RecordedAt  time.Time `json:"registrada_en"`
}

// fromModel renders a row; publicURL maps a stored image key to its URL.
func fromModel(e *models.PhotoEvidence, publicURL func(string) string) EvidenceDTO {
	dto := EvidenceDTO{
		ID:          e.ID,
		URL:         e.URL,
		Description: e.Description,
		ClientNIT:   e.ClientNIT,
		RouteID:     e.RouteID,
		SaleID:      e.SaleID,
		RecordedAt:  e.RecordedAt,
	}
	switch {
	case e.Image != nil && *e.Image != "":
		u := publicURL(*e.Image)
		dto.ImageURL = &u
	case e.URL != nil:
		dto.ImageURL = e.URL
	}
	if e.Client != nil {
		dto.ClientName = &e.Client.Name
	}
	if e.Route != nil {
		dto.RouteName = e.Route.Name
	}
	if e.Sale != nil {
		total := e.Sale.Total.StringFixed(2)
		dto.SaleTotal = &total
	}
	return dto
}
