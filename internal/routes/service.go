package routes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/history"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	redisclient "github.com/angelmondragon/rutaventas-backend/pkg/redis"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxKilometers = decimal.New(1, 6)

// Service plans routes and records the sales made along them.
type Service interface {
	List(ctx context.Context, params pagination.Params) (pagination.Page[RouteDTO], error)
	Get(ctx context.Context, id int64) (*RouteDTO, error)
	Create(ctx context.Context, input RouteInput) (*RouteDTO, error)
	Update(ctx context.Context, id int64, input RouteInput) (*RouteDTO, error)
	Patch(ctx context.Context, id int64, patch RoutePatch) (*RouteDTO, error)
	Delete(ctx context.Context, id int64) error
	ListRecorridos(ctx context.Context, id int64) ([]sales.SaleDTO, error)
	RecordRecorrido(ctx context.Context, id int64, input RecorridoInput) (*RecorridoResult, error)
	CompareTimes(ctx context.Context, id int64) ([]TimeComparison, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Locker serializes edits of one route. A nil Locker disables locking.
type Locker interface {
	Lock(ctx context.Context, routeID int64) (func(context.Context) error, error)
}

// ServiceParams configure the route service.
type ServiceParams struct {
	Repo        *Repository
	Clients     *clients.Repository
	Catalog     *catalog.Repository
	Sales       sales.Service
	History     history.Service
	Tx          txRunner
	Locker      Locker
	Logger      *logger.Logger
	ArchiveSale bool
}

type service struct {
	repo        *Repository
	clients     *clients.Repository
	catalog     *catalog.Repository
	sales       sales.Service
	history     history.Service
	tx          txRunner
	locker      Locker
	logg        *logger.Logger
	archiveSale bool
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("route repository required")
	case params.Clients == nil:
		return nil, fmt.Errorf("client repository required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case params.Sales == nil:
		return nil, fmt.Errorf("sales service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.ArchiveSale && params.History == nil:
		return nil, fmt.Errorf("history service required when archiving recorridos")
	}
	return &service{
		repo:        params.Repo,
		clients:     params.Clients,
		catalog:     params.Catalog,
		sales:       params.Sales,
		history:     params.History,
		tx:          params.Tx,
		locker:      params.Locker,
		logg:        params.Logger,
		archiveSale: params.ArchiveSale,
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[RouteDTO], error) {
	rows, count, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[RouteDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list routes")
	}
	out := make([]RouteDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return pagination.NewPage(params, count, out), nil
}

func (s *service) Get(ctx context.Context, id int64) (*RouteDTO, error) {
	route, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(route)
	return &dto, nil
}

// Create stores the route and its assignments in one transaction. The
// assignment list is checked for duplicates before any storage access.
func (s *service) Create(ctx context.Context, input RouteInput) (*RouteDTO, error) {
	errs := validation.Errors{}
	if input.Clients == nil {
		errs.Add(clientsField, "Debe proporcionar al menos un cliente.")
	} else {
		errs.Merge(checkAssignments(input.Clients))
	}
	route := &models.Route{}
	errs.Merge(applyInput(input, route))
	if err := errs.Err("datos de ruta inválidos"); err != nil {
		return nil, err
	}

	var created *models.Route
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.checkSeller(ctx, repo, route.SellerDPI); err != nil {
			return err
		}
		rows, err := resolveAssignments(ctx, tx, s.clients, s.catalog, input.Clients)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, route); err != nil {
			return mapWriteError(err, "insert route")
		}
		if err := repo.ReplaceAssignments(ctx, route.ID, rows); err != nil {
			return mapWriteError(err, "insert assignments")
		}
		created, err = s.load(ctx, repo, route.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithRouteID(ctx, created.ID), "route created")
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id int64, input RouteInput) (*RouteDTO, error) {
	return s.edit(ctx, id, func(*models.Route) RouteInput { return input })
}

func (s *service) Patch(ctx context.Context, id int64, patch RoutePatch) (*RouteDTO, error) {
	return s.edit(ctx, id, patch.merge)
}

// edit applies the scalar fields built from the stored route and, when a
// client list is given, replaces every assignment, all under the route lock.
func (s *service) edit(ctx context.Context, id int64, build func(*models.Route) RouteInput) (*RouteDTO, error) {
	ctx = s.logg.WithRouteID(ctx, id)
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	var updated *models.Route
	replaced := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		route, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		input := build(route)

		errs := validation.Errors{}
		if input.Clients != nil {
			errs.Merge(checkAssignments(input.Clients))
		}
		errs.Merge(applyInput(input, route))
		if err := errs.Err("datos de ruta inválidos"); err != nil {
			return err
		}
		if err := s.checkSeller(ctx, repo, route.SellerDPI); err != nil {
			return err
		}

		var rows []models.RouteClient
		if input.Clients != nil {
			rows, err = resolveAssignments(ctx, tx, s.clients, s.catalog, input.Clients)
			if err != nil {
				return err
			}
		}
		if err := repo.Save(ctx, route); err != nil {
			return mapWriteError(err, "update route")
		}
		if input.Clients != nil {
			if err := repo.ReplaceAssignments(ctx, id, rows); err != nil {
				return mapWriteError(err, "replace assignments")
			}
			replaced = true
		}
		updated, err = s.load(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if replaced {
		s.logg.Info(ctx, "route assignments replaced")
	}
	dto := FromModel(updated)
	return &dto, nil
}

// Delete detaches the route's sales and history rows, then removes its
// assignments and the route itself.
func (s *service) Delete(ctx context.Context, id int64) error {
	ctx = s.logg.WithRouteID(ctx, id)
	release, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.Exists(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load route")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ruta no encontrada")
		}
		if err := repo.DetachSales(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach route sales")
		}
		if err := repo.DeleteAssignments(ctx, id); err != nil {
			return deleteError(err, "delete assignments")
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return deleteError(err, "delete route")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(ctx, "route deleted")
	return nil
}

func (s *service) ListRecorridos(ctx context.Context, id int64) ([]sales.SaleDTO, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}
	return s.sales.ListByRoute(ctx, id)
}

// RecordRecorrido stores a sale on the route and, when enabled, archives it
// in the same transaction.
func (s *service) RecordRecorrido(ctx context.Context, id int64, input RecorridoInput) (*RecorridoResult, error) {
	ctx = s.logg.WithRouteID(ctx, id)
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}
	routeID := id
	input.RouteID = &routeID

	var (
		sale      *models.Sale
		historyID *int64
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.CreateTx(ctx, tx, input.SaleInput)
		if err != nil {
			return err
		}
		if !s.archiveSale {
			return nil
		}
		snapshot, _, err := s.history.ArchiveTx(ctx, tx, sale, history.ArchiveInput{ActualVisitMinutes: input.ActualVisitMinutes})
		if err != nil {
			return err
		}
		historyID = &snapshot.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RecorridoResult{SaleDTO: sales.FromModel(sale), HistoryID: historyID}, nil
}

// CompareTimes reports planned against average actual minutes for every
// assignment, in visit order. The average is nil when no history row has a
// recorded duration for that client.
func (s *service) CompareTimes(ctx context.Context, id int64) ([]TimeComparison, error) {
	route, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	recorded, err := s.repo.ActualVisitMinutes(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load visit minutes")
	}

	type acc struct {
		sum   int64
		count int64
	}
	byClient := make(map[string]*acc, len(route.Assignments))
	for _, row := range recorded {
		a, ok := byClient[row.ClientNIT]
		if !ok {
			a = &acc{}
			byClient[row.ClientNIT] = a
		}
		a.sum += int64(row.Minutes)
		a.count++
	}

	out := make([]TimeComparison, 0, len(route.Assignments))
	for _, assignment := range route.Assignments {
		item := TimeComparison{ClientNIT: assignment.ClientNIT, VisitOrder: assignment.VisitOrder}
		if assignment.Client != nil {
			item.Client = assignment.Client.Name
		}
		if assignment.TimeAllowance != nil {
			planned := assignment.TimeAllowance.Minutes
			item.Planned = &planned
		}
		if a, ok := byClient[assignment.ClientNIT]; ok && a.count > 0 {
			avg, _ := decimal.NewFromInt(a.sum).Div(decimal.NewFromInt(a.count)).Round(2).Float64()
			item.AvgReal = &avg
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *service) load(ctx context.Context, repo *Repository, id int64) (*models.Route, error) {
	route, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ruta no encontrada")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load route")
	}
	return route, nil
}

func (s *service) ensureExists(ctx context.Context, id int64) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load route")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "ruta no encontrada")
	}
	return nil
}

func (s *service) checkSeller(ctx context.Context, repo *Repository, dpi string) error {
	exists, err := repo.SellerExists(ctx, dpi)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check seller")
	}
	if !exists {
		return validation.Errors{"dpi_vendedor": {fmt.Sprintf("el vendedor '%s' no existe", dpi)}}.Err("datos de ruta inválidos")
	}
	return nil
}

// lock takes the route lease. The returned release never fails the request.
func (s *service) lock(ctx context.Context, id int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		if errors.Is(err, redisclient.ErrLockHeld) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "La ruta está siendo modificada por otra solicitud.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock route")
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := unlock(releaseCtx); err != nil {
			s.logg.Warn(ctx, "route lock release failed: "+err.Error())
		}
	}, nil
}

// applyInput validates the scalar fields and copies them onto route.
func applyInput(input RouteInput, route *models.Route) validation.Errors {
	input.SellerDPI = strings.TrimSpace(input.SellerDPI)
	errs := validation.Struct(input)

	date, err := time.Parse(DateLayout, strings.TrimSpace(input.Date))
	if err != nil && errs["fecha"] == nil {
		errs.Add("fecha", "formato de fecha inválido, use AAAA-MM-DD")
	}

	status := enums.RouteStatusPending
	if raw := strings.ToUpper(strings.TrimSpace(input.Status)); raw != "" {
		parsed, err := enums.ParseRouteStatus(raw)
		if err != nil {
			errs.Addf("estado", "'%s' no es un estado válido", raw)
		}
		status = parsed
	}

	if km := input.EstimatedKM; km != nil {
		switch {
		case km.IsNegative():
			errs.Add("kilometros_estimados", "debe ser mayor o igual a 0")
		case !km.Equal(km.Round(2)):
			errs.Add("kilometros_estimados", "admite como máximo 2 decimales")
		case km.GreaterThanOrEqual(maxKilometers):
			errs.Add("kilometros_estimados", "excede el valor permitido")
		}
	}
	if !errs.Empty() {
		return errs
	}

	route.SellerDPI = input.SellerDPI
	route.Date = date
	route.Name = input.Name
	route.EstimatedKM = input.EstimatedKM
	route.PlannedMinutes = input.PlannedMinutes
	route.ActualMinutes = input.ActualMinutes
	route.OverallResult = input.OverallResult
	route.Status = string(status)
	return errs
}

func mapWriteError(err error, step string) error {
	switch {
	case db.IsUniqueViolation(err, "ruta_clientes_ruta_cliente"):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de ruta inválidos").
			WithDetails(map[string]any{clientsField: []string{"Un cliente no puede repetirse en la ruta."}})
	case db.IsUniqueViolation(err, "ruta_clientes_ruta_orden"):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de ruta inválidos").
			WithDetails(map[string]any{clientsField: []string{"El orden de visita no puede repetirse en la ruta."}})
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "referencia inválida en la ruta")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}

func deleteError(err error, step string) error {
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "No se pudo eliminar la ruta porque aún tiene dependencias protegidas.")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
