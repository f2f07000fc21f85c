package history

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/testutil"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := testutil.OpenClient(t)
	testutil.SeedCatalogs(t, conn)
	svc, err := NewService(NewRepository(conn), client, metrics.NewOperationMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	return svc, conn
}

func strp(v string) *string { return &v }

func addLine(t *testing.T, conn *gorm.DB, saleID int64, line int, code string, qty int, price string) {
	t.Helper()
	require.NoError(t, conn.Create(&models.SaleLine{
		SaleID:      saleID,
		Line:        line,
		ProductCode: strp(code),
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(price),
	}).Error)
}

func TestArchiveCopiesRouteContextAndLines(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.MustCreateSeller(t, conn, "900", "Vendedora")
	testutil.MustCreateClient(t, conn, "100", "Tienda")
	testutil.MustCreateProduct(t, conn, "P-1", "Galleta", "2.50")

	route := testutil.MustCreateRoute(t, conn, "900", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), "100")
	km := decimal.RequireFromString("12.5")
	planned := 90
	require.NoError(t, conn.Model(&models.Route{}).Where("id_ruta = ?", route.ID).
		Updates(map[string]any{"kilometros_estimados": km, "tiempo_planificado_min": planned}).Error)
	startAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	endAt := startAt.Add(25 * time.Minute)
	require.NoError(t, conn.Model(&models.RouteClient{}).Where("id_ruta = ?", route.ID).
		Updates(map[string]any{"hora_inicio": startAt, "hora_fin": endAt, "resultado_visita": "VENTA"}).Error)

	sale := testutil.MustCreateSale(t, conn, "100", &route.ID, "5.00", endAt)
	addLine(t, conn, sale.ID, 1, "P-1", 2, "2.50")

	// The snapshot keeps the description current at archive time.
	snapshot, created, err := svc.Archive(context.Background(), sale.ID, ArchiveInput{})
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, "900", snapshot.SellerDPI)
	assert.Equal(t, "5.00", snapshot.SaleTotal)
	require.NotNil(t, snapshot.VisitOrder)
	assert.Equal(t, 1, *snapshot.VisitOrder)
	assert.Equal(t, "VENTA", *snapshot.VisitOutcome)
	assert.Equal(t, 15, *snapshot.AllowedClientMinutes)
	assert.Equal(t, 25, *snapshot.ActualVisitMinutes)
	assert.Equal(t, 90, *snapshot.PlannedRouteMinutes)
	assert.Equal(t, "12.50", *snapshot.EstimatedKM)
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, "Galleta", snapshot.Lines[0].ProductDescription)
	assert.Equal(t, "5.00", snapshot.Lines[0].Subtotal)

	require.NoError(t, conn.Model(&models.Product{}).Where("codigo = ?", "P-1").Update("descripcion", "Galleta nueva").Error)
	again, created, err := svc.Archive(context.Background(), sale.ID, ArchiveInput{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, snapshot.ID, again.ID)
	assert.Equal(t, "Galleta", again.Lines[0].ProductDescription)

	var count int64
	require.NoError(t, conn.Model(&models.HistoricalSale{}).Where("id_venta = ?", sale.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestArchiveWithoutRouteNeedsSeller(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.MustCreateSeller(t, conn, "900", "Vendedora")
	testutil.MustCreateClient(t, conn, "100", "Tienda")
	sale := testutil.MustCreateSale(t, conn, "100", nil, "8.00", time.Now().UTC())
	ctx := context.Background()

	_, _, err := svc.Archive(ctx, sale.ID, ArchiveInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Details().(map[string]any), "dpi_vendedor")

	_, _, err = svc.Archive(ctx, sale.ID, ArchiveInput{SellerDPI: strp("404")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	minutes := 12
	snapshot, created, err := svc.Archive(ctx, sale.ID, ArchiveInput{SellerDPI: strp("900"), ActualVisitMinutes: &minutes})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, snapshot.RouteID)
	assert.Equal(t, 12, *snapshot.ActualVisitMinutes)
	assert.Nil(t, snapshot.VisitOrder)
}

func TestArchiveDeletedProductKeepsPlaceholder(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.MustCreateSeller(t, conn, "900", "Vendedora")
	testutil.MustCreateClient(t, conn, "100", "Tienda")
	sale := testutil.MustCreateSale(t, conn, "100", nil, "3.00", time.Now().UTC())
	require.NoError(t, conn.Create(&models.SaleLine{
		SaleID: sale.ID, Line: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("3"),
	}).Error)

	snapshot, _, err := svc.Archive(context.Background(), sale.ID, ArchiveInput{SellerDPI: strp("900")})
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, "", snapshot.Lines[0].ProductCode)
	assert.Equal(t, missingProductDescription, snapshot.Lines[0].ProductDescription)
}

func TestArchiveUnknownSale(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Archive(context.Background(), 123, ArchiveInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListFiltersByDateRange(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.MustCreateSeller(t, conn, "900", "Vendedora")
	testutil.MustCreateSeller(t, conn, "901", "Vendedor")
	testutil.MustCreateClient(t, conn, "100", "Tienda")
	ctx := context.Background()

	days := []time.Time{
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 2, 23, 30, 0, 0, time.UTC),
		time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		sale := testutil.MustCreateSale(t, conn, "100", nil, "1.00", day)
		dpi := "900"
		if i == 2 {
			dpi = "901"
		}
		_, _, err := svc.Archive(ctx, sale.ID, ArchiveInput{SellerDPI: &dpi})
		require.NoError(t, err)
	}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	page, err := svc.List(ctx, ListInput{Filters: ListFilters{From: &from, To: &to}, Params: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	assert.True(t, page.Results[0].SaleDate.After(page.Results[1].SaleDate))

	page, err = svc.List(ctx, ListInput{Filters: ListFilters{SellerDPI: "901"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Count)

	_, err = svc.List(ctx, ListInput{Filters: ListFilters{From: &to, To: &from}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestVisitMinutes(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(90*time.Second + 30*time.Minute)
	assert.Equal(t, 31, *VisitMinutes(&start, &end))
	assert.Nil(t, VisitMinutes(&end, &start))
	assert.Nil(t, VisitMinutes(nil, &end))
}
