package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"gorm.io/gorm"
)

// Archive kinds exported on the operation metrics.
const (
	KindExplicit  = "explicit"
	KindRecorrido = "recorrido"
)

// Product description recorded for lines whose product was deleted before
// archiving.
const missingProductDescription = "Producto no disponible"

// Service captures point-in-time snapshots of sales. A sale is archived at
// most once; later calls return the existing snapshot.
type Service interface {
	Archive(ctx context.Context, saleID int64, input ArchiveInput) (*HistoricalSaleDTO, bool, error)
	ArchiveTx(ctx context.Context, tx *gorm.DB, sale *models.Sale, input ArchiveInput) (*models.HistoricalSale, bool, error)
	List(ctx context.Context, input ListInput) (pagination.Page[HistoricalSaleDTO], error)
}

type ListInput struct {
	Filters ListFilters
	Params  pagination.Params
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	metrics *metrics.OperationMetrics
}

func NewService(repo *Repository, tx txRunner, m *metrics.OperationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: m}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Page[HistoricalSaleDTO], error) {
	if input.Filters.From != nil && input.Filters.To != nil && input.Filters.To.Before(*input.Filters.From) {
		return pagination.Page[HistoricalSaleDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "rango de fechas inválido").
			WithDetails(map[string]any{"fecha_hasta": []string{"debe ser posterior a fecha_desde"}})
	}
	rows, count, err := s.repo.List(ctx, input.Filters, input.Params)
	if err != nil {
		return pagination.Page[HistoricalSaleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}
	out := make([]HistoricalSaleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return pagination.NewPage(input.Params, count, out), nil
}

func (s *service) Archive(ctx context.Context, saleID int64, input ArchiveInput) (dto *HistoricalSaleDTO, created bool, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(metrics.OperationArchive, KindExplicit, start, err) }()

	var row *models.HistoricalSale
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.repo.WithTx(tx).FindSale(ctx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "venta no encontrada")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}
		row, created, err = s.archive(ctx, tx, sale, input)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	out := FromModel(row)
	return &out, created, nil
}

func (s *service) ArchiveTx(ctx context.Context, tx *gorm.DB, sale *models.Sale, input ArchiveInput) (row *models.HistoricalSale, created bool, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(metrics.OperationArchive, KindRecorrido, start, err) }()
	if sale == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "venta requerida")
	}
	return s.archive(ctx, tx, sale, input)
}

func (s *service) archive(ctx context.Context, tx *gorm.DB, sale *models.Sale, input ArchiveInput) (*models.HistoricalSale, bool, error) {
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindBySaleID(ctx, sale.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check history")
	}

	errs := validation.Struct(input)
	row := &models.HistoricalSale{
		SaleID:    sale.ID,
		RouteID:   sale.RouteID,
		ClientNIT: sale.ClientNIT,
		SaleDate:  sale.Date,
		SaleTotal: sale.Total,
	}

	if sale.RouteID != nil {
		if err := s.fillRouteContext(ctx, repo, row, *sale.RouteID); err != nil {
			return nil, false, err
		}
	} else {
		dpi := ""
		if input.SellerDPI != nil {
			dpi = strings.TrimSpace(*input.SellerDPI)
		}
		if dpi == "" {
			errs.Add("dpi_vendedor", "es obligatorio para ventas sin ruta")
		} else {
			exists, err := repo.SellerExists(ctx, dpi)
			if err != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check seller")
			}
			if !exists {
				errs.Addf("dpi_vendedor", "el vendedor '%s' no existe", dpi)
			}
		}
		row.SellerDPI = dpi
	}
	if err := errs.Err("no se pudo archivar la venta"); err != nil {
		return nil, false, err
	}

	if input.ActualVisitMinutes != nil {
		row.ActualVisitMinutes = input.ActualVisitMinutes
	}

	lines, err := snapshotLines(ctx, repo, sale.Lines)
	if err != nil {
		return nil, false, err
	}
	row.Lines = lines

	if err := repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "la venta ya fue archivada")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert history")
	}
	return row, true, nil
}

// fillRouteContext copies the route figures and the client's assignment
// timing onto row.
func (s *service) fillRouteContext(ctx context.Context, repo *Repository, row *models.HistoricalSale, routeID int64) error {
	route, err := repo.FindRoute(ctx, routeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ruta no encontrada")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load route")
	}
	row.SellerDPI = route.SellerDPI
	row.EstimatedKM = route.EstimatedKM
	row.PlannedRouteMinutes = route.PlannedMinutes
	row.ActualRouteMinutes = route.ActualMinutes

	assignment, err := repo.FindAssignment(ctx, routeID, row.ClientNIT)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}

	order := assignment.VisitOrder
	outcome := assignment.Outcome
	row.VisitOrder = &order
	row.VisitOutcome = &outcome
	row.VisitNotes = assignment.Notes
	row.VisitStartedAt = assignment.StartedAt
	row.VisitEndedAt = assignment.EndedAt
	if assignment.TimeAllowance != nil {
		minutes := assignment.TimeAllowance.Minutes
		row.AllowedClientMinutes = &minutes
	}
	row.ActualVisitMinutes = VisitMinutes(assignment.StartedAt, assignment.EndedAt)
	return nil
}

func snapshotLines(ctx context.Context, repo *Repository, lines []models.SaleLine) ([]models.HistoricalSaleLine, error) {
	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ProductCode != nil {
			codes = append(codes, *line.ProductCode)
		}
	}
	descriptions, err := repo.ProductDescriptions(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	out := make([]models.HistoricalSaleLine, 0, len(lines))
	for _, line := range lines {
		code := ""
		description := missingProductDescription
		if line.ProductCode != nil {
			code = *line.ProductCode
			if d, ok := descriptions[code]; ok {
				description = d
			}
		}
		out = append(out, models.HistoricalSaleLine{
			Line:               line.Line,
			ProductCode:        code,
			ProductDescription: description,
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice,
			Subtotal:           line.Subtotal(),
		})
	}
	return out, nil
}

// VisitMinutes returns the whole minutes between start and end, or nil when
// either is missing or end precedes start.
func VisitMinutes(start, end *time.Time) *int {
	if start == nil || end == nil || end.Before(*start) {
		return nil
	}
	minutes := int(end.Sub(*start) / time.Minute)
	return &minutes
}
