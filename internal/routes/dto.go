package routes

import (
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of a route date.
const DateLayout = "2006-01-02"

type RouteDTO struct {
	ID             int64           `json:"id_ruta"`
	SellerDPI      string          `json:"dpi_vendedor"`
	Date           string          `json:"fecha"`
	Name           *string         `json:"nombre"`
	EstimatedKM    *string         `json:"kilometros_estimados"`
	PlannedMinutes *int            `json:"tiempo_planificado_min"`
	ActualMinutes  *int            `json:"tiempo_real_min"`
	OverallResult  *string         `json:"resultado_global"`
	Status         string          `json:"estado"`
	Assignments    []AssignmentDTO `json:"clienterutas"`
	CreatedAt      time.Time       `json:"creado_en"`
	UpdatedAt      time.Time       `json:"actualizado_en"`
}

type AssignmentDTO struct {
	RouteID         int64              `json:"ruta"`
	Client          *clients.ClientDTO `json:"cliente"`
	VisitOrder      int                `json:"orden_visita"`
	TimeAllowanceID int16              `json:"id_tiempo_cliente"`
	StartedAt       *time.Time         `json:"hora_inicio"`
	EndedAt         *time.Time         `json:"hora_fin"`
	Outcome         string             `json:"resultado_visita"`
	Notes           *string            `json:"observaciones"`
}

// AssignmentInput places one client on the route.
type AssignmentInput struct {
	ClientNIT       string     `json:"nit_cliente" validate:"required,max=9"`
	VisitOrder      int        `json:"orden_visita" validate:"required,gte=1"`
	TimeAllowanceID int16      `json:"id_tiempo_cliente" validate:"required"`
	Outcome         *string    `json:"resultado_visita" validate:"omitempty,max=20"`
	Notes           *string    `json:"observaciones" validate:"omitempty,max=500"`
	StartedAt       *time.Time `json:"hora_inicio"`
	EndedAt         *time.Time `json:"hora_fin"`
}

// RouteInput is the full representation of a route. A nil Clients keeps the
// current assignments on update; a non-nil one replaces them.
type RouteInput struct {
	SellerDPI      string            `json:"dpi_vendedor" validate:"required,max=13,digits"`
	Date           string            `json:"fecha" validate:"required"`
	Name           *string           `json:"nombre" validate:"omitempty,max=150"`
	EstimatedKM    *decimal.Decimal  `json:"kilometros_estimados"`
	PlannedMinutes *int              `json:"tiempo_planificado_min" validate:"omitempty,gte=0"`
	ActualMinutes  *int              `json:"tiempo_real_min" validate:"omitempty,gte=0"`
	OverallResult  *string           `json:"resultado_global" validate:"omitempty,max=50"`
	Status         string            `json:"estado"`
	Clients        []AssignmentInput `json:"clientes" validate:"-"`
}

type RoutePatch struct {
	SellerDPI      *string           `json:"dpi_vendedor"`
	Date           *string           `json:"fecha"`
	Name           *string           `json:"nombre"`
	EstimatedKM    *decimal.Decimal  `json:"kilometros_estimados"`
	PlannedMinutes *int              `json:"tiempo_planificado_min"`
	ActualMinutes  *int              `json:"tiempo_real_min"`
	OverallResult  *string           `json:"resultado_global"`
	Status         *string           `json:"estado"`
	Clients        []AssignmentInput `json:"clientes"`
}

// RecorridoInput is a sale recorded along the route. The route reference is
// always taken from the path.
type RecorridoInput struct {
	sales.SaleInput
	ActualVisitMinutes *int `json:"tiempo_real_visita_min"`
}

// RecorridoResult is the stored sale plus its history snapshot id when one
// was captured.
type RecorridoResult struct {
	sales.SaleDTO
	HistoryID *int64 `json:"id_historial_venta,omitempty"`
}

// TimeComparison compares an assignment's planned minutes with the average
// actual minutes recorded in history.
type TimeComparison struct {
	ClientNIT  string   `json:"nit_cliente"`
	Client     string   `json:"cliente"`
	VisitOrder int      `json:"orden_visita"`
	Planned    *int     `json:"planned"`
	AvgReal    *float64 `json:"avg_real"`
}

func FromModel(r *models.Route) RouteDTO {
	var km *string
	if r.EstimatedKM != nil {
		v := r.EstimatedKM.StringFixed(2)
		km = &v
	}
	assignments := make([]AssignmentDTO, 0, len(r.Assignments))
	for i := range r.Assignments {
		a := &r.Assignments[i]
		assignments = append(assignments, AssignmentDTO{
			RouteID:         a.RouteID,
			Client:          clients.FromModel(a.Client),
			VisitOrder:      a.VisitOrder,
			TimeAllowanceID: a.TimeAllowanceID,
			StartedAt:       a.StartedAt,
			EndedAt:         a.EndedAt,
			Outcome:         a.Outcome,
			Notes:           a.Notes,
		})
	}
	return RouteDTO{
		ID:             r.ID,
		SellerDPI:      r.SellerDPI,
		Date:           r.Date.Format(DateLayout),
		Name:           r.Name,
		EstimatedKM:    km,
		PlannedMinutes: r.PlannedMinutes,
		ActualMinutes:  r.ActualMinutes,
		OverallResult:  r.OverallResult,
		Status:         r.Status,
		Assignments:    assignments,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (p RoutePatch) merge(r *models.Route) RouteInput {
	in := RouteInput{
		SellerDPI:      r.SellerDPI,
		Date:           r.Date.Format(DateLayout),
		Name:           r.Name,
		EstimatedKM:    r.EstimatedKM,
		PlannedMinutes: r.PlannedMinutes,
		ActualMinutes:  r.ActualMinutes,
		OverallResult:  r.OverallResult,
		Status:         r.Status,
		Clients:        p.Clients,
	}
	if p.SellerDPI != nil {
		in.SellerDPI = *p.SellerDPI
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Name != nil {
		in.Name = p.Name
	}
	if p.EstimatedKM != nil {
		in.EstimatedKM = p.EstimatedKM
	}
	if p.PlannedMinutes != nil {
		in.PlannedMinutes = p.PlannedMinutes
	}
	if p.ActualMinutes != nil {
		in.ActualMinutes = p.ActualMinutes
	}
	if p.OverallResult != nil {
		in.OverallResult = p.OverallResult
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	return in
}
