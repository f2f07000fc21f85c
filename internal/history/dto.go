package history

import (
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
)

type HistoricalSaleDTO struct {
	ID                   int64                   `json:"id_historial_venta"`
	SaleID               int64                   `json:"id_venta"`
	RouteID              *int64                  `json:"id_ruta"`
	ClientNIT            string                  `json:"nit_cliente"`
	SellerDPI            string                  `json:"dpi_vendedor"`
	SaleDate             time.Time               `json:"fecha_venta"`
	SaleTotal            string                  `json:"total_venta"`
	VisitOrder           *int                    `json:"orden_visita"`
	VisitOutcome         *string                 `json:"resultado_visita"`
	VisitNotes           *string                 `json:"observaciones_visita"`
	EstimatedKM          *string                 `json:"kilometros_estimados"`
	PlannedRouteMinutes  *int                    `json:"tiempo_planificado_total_min"`
	AllowedClientMinutes *int                    `json:"tiempo_cliente_asignado_min"`
	VisitStartedAt       *time.Time              `json:"hora_inicio_visita"`
	VisitEndedAt         *time.Time              `json:"hora_fin_visita"`
	ActualVisitMinutes   *int                    `json:"tiempo_real_visita_min"`
	ActualRouteMinutes   *int                    `json:"tiempo_real_ruta_min"`
	Lines                []HistoricalSaleLineDTO `json:"detalles"`
	RecordedAt           time.Time               `json:"registrado_en"`
	UpdatedAt            time.Time               `json:"actualizado_en"`
}

type HistoricalSaleLineDTO struct {
	Line               int    `json:"linea"`
	ProductCode        string `json:"codigo_producto"`
	ProductDescription string `json:"descripcion_producto"`
	Quantity           int    `json:"cantidad"`
	UnitPrice          string `json:"precio_unitario"`
	Subtotal           string `json:"subtotal"`
}

// ArchiveInput carries what the sale itself cannot tell the archiver.
type ArchiveInput struct {
	// SellerDPI is required for sales without a route and ignored otherwise.
	SellerDPI *string `json:"dpi_vendedor"`
	// ActualVisitMinutes overrides the minutes derived from the assignment's
	// start and end times.
	ActualVisitMinutes *int `json:"tiempo_real_visita_min" validate:"omitempty,gte=0"`
}

func FromModel(h *models.HistoricalSale) HistoricalSaleDTO {
	var km *string
	if h.EstimatedKM != nil {
		v := h.EstimatedKM.StringFixed(2)
		km = &v
	}
	lines := make([]HistoricalSaleLineDTO, 0, len(h.Lines))
	for _, line := range h.Lines {
		lines = append(lines, HistoricalSaleLineDTO{
			Line:               line.Line,
			ProductCode:        line.ProductCode,
			ProductDescription: line.ProductDescription,
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice.StringFixed(2),
			Subtotal:           line.Subtotal.StringFixed(2),
		})
	}
	return HistoricalSaleDTO{
		ID:                   h.ID,
		SaleID:               h.SaleID,
		RouteID:              h.RouteID,
		ClientNIT:            h.ClientNIT,
		SellerDPI:            h.SellerDPI,
		SaleDate:             h.SaleDate,
		SaleTotal:            h.SaleTotal.StringFixed(2),
		VisitOrder:           h.VisitOrder,
		VisitOutcome:         h.VisitOutcome,
		VisitNotes:           h.VisitNotes,
		EstimatedKM:          km,
		PlannedRouteMinutes:  h.PlannedRouteMinutes,
		AllowedClientMinutes: h.AllowedClientMinutes,
		VisitStartedAt:       h.VisitStartedAt,
		VisitEndedAt:         h.VisitEndedAt,
		ActualVisitMinutes:   h.ActualVisitMinutes,
		ActualRouteMinutes:   h.ActualRouteMinutes,
		Lines:                lines,
		RecordedAt:           h.RecordedAt,
		UpdatedAt:            h.UpdatedAt,
	}
}
