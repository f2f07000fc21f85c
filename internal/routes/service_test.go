package routes

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/history"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/internal/testutil"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	redisclient "github.com/angelmondragon/rutaventas-backend/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLocker struct {
	held     map[int64]bool
	released []int64
}

func (f *fakeLocker) Lock(_ context.Context, routeID int64) (func(context.Context) error, error) {
	if f.held[routeID] {
		return nil, redisclient.ErrLockHeld
	}
	return func(context.Context) error {
		f.released = append(f.released, routeID)
		return nil
	}, nil
}

type fixture struct {
	svc    Service
	conn   *gorm.DB
	locker *fakeLocker
}

func newFixture(t *testing.T, archive bool) fixture {
	t.Helper()
	client, conn := testutil.OpenClient(t)
	testutil.SeedCatalogs(t, conn)
	testutil.MustCreateSeller(t, conn, "900", "Vendedora")
	testutil.MustCreateClient(t, conn, "100", "Tienda Uno")
	testutil.MustCreateClient(t, conn, "200", "Tienda Dos")

	salesSvc, err := sales.NewService(sales.NewRepository(conn), client)
	require.NoError(t, err)
	historySvc, err := history.NewService(history.NewRepository(conn), client, nil)
	require.NoError(t, err)

	locker := &fakeLocker{held: map[int64]bool{}}
	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Clients:     clients.NewRepository(conn),
		Catalog:     catalog.NewRepository(conn),
		Sales:       salesSvc,
		History:     historySvc,
		Tx:          client,
		Locker:      locker,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		ArchiveSale: archive,
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, locker: locker}
}

func validationDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	return details
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func baseInput(clients ...AssignmentInput) RouteInput {
	return RouteInput{SellerDPI: "900", Date: "2025-03-01", Clients: clients}
}

func TestCreateRejectsEmptyClientList(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Create(context.Background(), baseInput())
	details := validationDetails(t, err)
	assert.Equal(t, []string{"Debe proporcionar al menos un cliente."}, details["clientes"])

	_, err = f.svc.Create(context.Background(), RouteInput{SellerDPI: "900", Date: "2025-03-01", Clients: []AssignmentInput{}})
	validationDetails(t, err)
	assert.Zero(t, countRows(t, f.conn, &models.Route{}))
}

func TestCreateRejectsDuplicatesBeforeStorage(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Create(context.Background(), RouteInput{
		SellerDPI: "404",
		Date:      "2025-03-01",
		Clients: []AssignmentInput{
			{ClientNIT: "100", VisitOrder: 1, TimeAllowanceID: 1},
			{ClientNIT: "100", VisitOrder: 1, TimeAllowanceID: 1},
		},
	})
	details := validationDetails(t, err)
	assert.Equal(t, []string{
		"El cliente '100' está repetido.",
		"El orden de visita '1' está repetido.",
	}, details["clientes"])
	assert.NotContains(t, details, "dpi_vendedor")
}

func TestCreateListsEveryMissingReference(t *testing.T) {
	f := newFixture(t, true)
	bad := "PERDIDA"

	_, err := f.svc.Create(context.Background(), baseInput(
		AssignmentInput{ClientNIT: "300", VisitOrder: 1, TimeAllowanceID: 9},
		AssignmentInput{ClientNIT: "250", VisitOrder: 2, TimeAllowanceID: 1, Outcome: &bad},
		AssignmentInput{ClientNIT: "100", VisitOrder: 3, TimeAllowanceID: 1},
	))
	details := validationDetails(t, err)
	assert.Equal(t, []string{
		"Cliente '250' no existe",
		"Cliente '300' no existe",
		"Tiempo cliente '9' no existe",
		"Resultado visita 'PERDIDA' no existe",
	}, details["clientes"])
	assert.Zero(t, countRows(t, f.conn, &models.Route{}))
	assert.Zero(t, countRows(t, f.conn, &models.RouteClient{}))
}

func TestCreateOrdersAssignmentsAndDefaultsOutcome(t *testing.T) {
	f := newFixture(t, true)
	km := decimal.RequireFromString("18.4")

	input := baseInput(
		AssignmentInput{ClientNIT: "200", VisitOrder: 2, TimeAllowanceID: 2},
		AssignmentInput{ClientNIT: "100", VisitOrder: 1, TimeAllowanceID: 1},
	)
	input.EstimatedKM = &km
	route, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", route.Date)
	assert.Equal(t, "PENDIENTE", route.Status)
	assert.Equal(t, "18.40", *route.EstimatedKM)
	require.Len(t, route.Assignments, 2)
	assert.Equal(t, "100", route.Assignments[0].Client.NIT)
	assert.Equal(t, "Tienda Uno", route.Assignments[0].Client.Name)
	assert.Equal(t, 2, route.Assignments[1].VisitOrder)
	assert.Equal(t, "PENDIENTE", route.Assignments[1].Outcome)

	page, err := f.svc.List(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Count)
	assert.Len(t, page.Results[0].Assignments, 2)
}

func TestCreateRejectsUnknownSellerAndBadDate(t *testing.T) {
	f := newFixture(t, true)

	input := baseInput(AssignmentInput{ClientNIT: "100", VisitOrder: 1, TimeAllowanceID: 1})
	input.Date = "01/03/2025"
	details := validationDetails(t, func() error { _, err := f.svc.Create(context.Background(), input); return err }())
	assert.Contains(t, details, "fecha")

	input.Date = "2025-03-01"
	input.SellerDPI = "404"
	details = validationDetails(t, func() error { _, err := f.svc.Create(context.Background(), input); return err }())
	assert.Contains(t, details, "dpi_vendedor")
}

func TestPatchKeepsOrReplacesAssignments(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	route, err := f.svc.Create(ctx, baseInput(
		AssignmentInput{ClientNIT: "100", VisitOrder: 1, TimeAllowanceID: 1},
		AssignmentInput{ClientNIT: "200", VisitOrder: 2, TimeAllowanceID: 1},
	))
	require.NoError(t, err)

	name := "Ruta centro"
	status := "en_proceso"
	patched, err := f.svc.Patch(ctx, route.ID, RoutePatch{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Ruta centro", *patched.Name)
	assert.Equal(t, "EN_PROCESO", patched.Status)
	assert.Len(t, patched.Assignments, 2)

	outcome := "venta"
	replaced, err := f.svc.Patch(ctx, route.ID, RoutePatch{Clients: []AssignmentInput{
		{ClientNIT: "200", VisitOrder: 1, TimeAllowanceID: 2, Outcome: &outcome},
	}})
	require.NoError(t, err)
	require.Len(t, replaced.Assignments, 1)
	assert.Equal(t, "200", replaced.Assignments[0].Client.NIT)
	assert.Equal(t, "VENTA", replaced.Assignments[0].Outcome)
	assert.EqualValues(t, 1, countRows(t, f.conn, &models.RouteClient{}))

	_, err = f.svc.Update(ctx, route.ID, RouteInput{SellerDPI: "900", Date: "2025-03-02", Clients: []AssignmentInput{}})
	validationDetails(t, err)
	assert.EqualValues(t, 1, countRows(t, f.conn, &models.RouteClient{}))

	assert.Len(t, f.locker.released, 3)
}

func TestEditFailsWhileRouteLocked(t *testing.T) {
	f := newFixture(t, true)
	route := testutil.MustCreateRoute(t, f.conn, "900", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "100")
	f.locker.held[route.ID] = true

	name := "x"
	_, err := f.svc.Patch(context.Background(), route.ID, RoutePatch{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.True(t, pkgerrors.IsCode(f.svc.Delete(context.Background(), route.ID), pkgerrors.CodeConflict))
}

func TestDeleteDetachesSalesAndHistory(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	route := testutil.MustCreateRoute(t, f.conn, "900", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "100", "200")

	recorded, err := f.svc.RecordRecorrido(ctx, route.ID, RecorridoInput{SaleInput: sales.SaleInput{
		ClientNIT: "100", Total: decimalPtr("12.00"),
	}})
	require.NoError(t, err)
	require.NotNil(t, recorded.HistoryID)

	require.NoError(t, f.svc.Delete(ctx, route.ID))

	var sale models.Sale
	require.NoError(t, f.conn.First(&sale, "id_venta = ?", recorded.ID).Error)
	assert.Nil(t, sale.RouteID)
	var snapshot models.HistoricalSale
	require.NoError(t, f.conn.First(&snapshot, "id_historial_venta = ?", *recorded.HistoryID).Error)
	assert.Nil(t, snapshot.RouteID)
	assert.Zero(t, countRows(t, f.conn, &models.RouteClient{}))
	assert.Zero(t, countRows(t, f.conn, &models.Route{}))

	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, route.ID), pkgerrors.CodeNotFound))
}

func TestDeleteBlockedByProtectedReferenceIsConflict(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	route := testutil.MustCreateRoute(t, f.conn, "900", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "100")

	require.NoError(t, f.conn.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, f.conn.Exec(`CREATE TABLE bloqueos_ruta (
		id INTEGER PRIMARY KEY,
		id_ruta INTEGER NOT NULL REFERENCES rutas(id_ruta) ON DELETE RESTRICT
	)`).Error)
	require.NoError(t, f.conn.Exec("INSERT INTO bloqueos_ruta (id, id_ruta) VALUES (1, ?)", route.ID).Error)

	err := f.svc.Delete(ctx, route.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	assert.EqualValues(t, 1, countRows(t, f.conn, &models.Route{}))
	assert.EqualValues(t, 1, countRows(t, f.conn, &models.RouteClient{}))
}

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestRecorridoForcesRouteAndHonoursArchiveSwitch(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, false)
	route := testutil.MustCreateRoute(t, f.conn, "900", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "100")
	other := testutil.MustCreateRoute(t, f.conn, "900", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), "100")

	recorded, err := f.svc.RecordRecorrido(ctx, route.ID, RecorridoInput{SaleInput: sales.SaleInput{
		ClientNIT: "100", RouteID: &other.ID, Total: decimalPtr("3.00"),
	}})
	require.NoError(t, err)
	require.NotNil(t, recorded.RouteID)
	assert.Equal(t, route.ID, *recorded.RouteID)
	assert.Nil(t, recorded.HistoryID)
	assert.Zero(t, countRows(t, f.conn, &models.HistoricalSale{}))

	listed, err := f.svc.ListRecorridos(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, recorded.ID, listed[0].ID)

	_, err = f.svc.ListRecorridos(ctx, 999)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRecorridoRollsBackOnInvalidSale(t *testing.T) {
	f := newFixture(t, true)
	route := testutil.MustCreateRoute(t, f.conn, "900", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "100")

	_, err := f.svc.RecordRecorrido(context.Background(), route.ID, RecorridoInput{SaleInput: sales.SaleInput{ClientNIT: "404"}})
	validationDetails(t, err)
	assert.Zero(t, countRows(t, f.conn, &models.Sale{}))
}

func TestCompareTimes(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	route := testutil.MustCreateRoute(t, f.conn, "900", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "100", "200")

	for _, minutes := range []int{10, 15} {
		m := minutes
		_, err := f.svc.RecordRecorrido(ctx, route.ID, RecorridoInput{
			SaleInput:          sales.SaleInput{ClientNIT: "100", Total: decimalPtr("1.00")},
			ActualVisitMinutes: &m,
		})
		require.NoError(t, err)
	}

	rows, err := f.svc.CompareTimes(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tienda Uno", rows[0].Client)
	assert.Equal(t, 15, *rows[0].Planned)
	require.NotNil(t, rows[0].AvgReal)
	assert.InDelta(t, 12.5, *rows[0].AvgReal, 0.001)
	assert.Equal(t, "Tienda Dos", rows[1].Client)
	assert.Nil(t, rows[1].AvgReal)
}
