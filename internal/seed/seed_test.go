package seed

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/evidence"
	"github.com/angelmondragon/rutaventas-backend/internal/history"
	"github.com/angelmondragon/rutaventas-backend/internal/routes"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/internal/testutil"
	"github.com/angelmondragon/rutaventas-backend/internal/users"
	"github.com/angelmondragon/rutaventas-backend/pkg/config"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/security"
	"github.com/angelmondragon/rutaventas-backend/pkg/storage/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fastArgon = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func newParams(t *testing.T) (Params, *gorm.DB) {
	t.Helper()
	client, conn := testutil.OpenClient(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	salesSvc, err := sales.NewService(sales.NewRepository(conn), client)
	require.NoError(t, err)
	historySvc, err := history.NewService(history.NewRepository(conn), client, nil)
	require.NoError(t, err)
	routeSvc, err := routes.NewService(routes.ServiceParams{
		Repo:        routes.NewRepository(conn),
		Clients:     clients.NewRepository(conn),
		Catalog:     catalog.NewRepository(conn),
		Sales:       salesSvc,
		History:     historySvc,
		Tx:          client,
		Logger:      logg,
		ArchiveSale: true,
	})
	require.NoError(t, err)
	store, err := local.NewStore(config.MediaConfig{Root: t.TempDir()}, logg)
	require.NoError(t, err)
	evidenceSvc, err := evidence.NewService(evidence.NewRepository(conn), store, logg)
	require.NoError(t, err)

	fixed := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return Params{
		DB:       conn,
		Users:    users.NewRepository(conn),
		Routes:   routeSvc,
		Evidence: evidenceSvc,
		Password: fastArgon,
		Logger:   logg,
		Now:      func() time.Time { return fixed },
	}, conn
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestRunSeedsDemoData(t *testing.T) {
	p, conn := newParams(t)

	summary, err := Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 1, Routes: 6, Evidence: 2}, summary)

	assert.EqualValues(t, 1, count(t, conn, &models.User{}))
	assert.EqualValues(t, 5, count(t, conn, &models.Client{}))
	assert.EqualValues(t, 4, count(t, conn, &models.Product{}))
	assert.EqualValues(t, 2, count(t, conn, &models.Seller{}))
	assert.EqualValues(t, 6, count(t, conn, &models.Route{}))
	assert.EqualValues(t, 18, count(t, conn, &models.RouteClient{}))
	assert.EqualValues(t, 6, count(t, conn, &models.Sale{}))
	assert.EqualValues(t, 6, count(t, conn, &models.HistoricalSale{}))
	assert.EqualValues(t, 2, count(t, conn, &models.PhotoEvidence{}))

	admin, err := p.Users.FindByUsername(context.Background(), AdminUsername)
	require.NoError(t, err)
	ok, err := security.VerifyPassword(AdminPassword, admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	var history models.HistoricalSale
	require.NoError(t, conn.Order("id_historial_venta").First(&history).Error)
	require.NotNil(t, history.ActualVisitMinutes)
	assert.Equal(t, 35, *history.ActualVisitMinutes)
}

func TestRunIsIdempotent(t *testing.T) {
	p, conn := newParams(t)

	_, err := Run(context.Background(), p)
	require.NoError(t, err)
	summary, err := Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, Summary{}, summary)
	assert.EqualValues(t, 1, count(t, conn, &models.User{}))
	assert.EqualValues(t, 6, count(t, conn, &models.Route{}))
	assert.EqualValues(t, 6, count(t, conn, &models.Sale{}))
	assert.EqualValues(t, 6, count(t, conn, &models.HistoricalSale{}))
	assert.EqualValues(t, 2, count(t, conn, &models.PhotoEvidence{}))
}

func TestRunRequiresServices(t *testing.T) {
	_, err := Run(context.Background(), Params{})
	require.Error(t, err)
}

func TestSeedReferenceDataFillsEveryTable(t *testing.T) {
	_, conn := newParams(t)

	require.NoError(t, seedReferenceData(context.Background(), conn))
	require.NoError(t, seedReferenceData(context.Background(), conn))

	assert.EqualValues(t, 3, count(t, conn, &models.CreditStatus{}))
	assert.EqualValues(t, 3, count(t, conn, &models.VisitOutcome{}))
	assert.EqualValues(t, 2, count(t, conn, &models.Packaging{}))
	assert.EqualValues(t, 2, count(t, conn, &models.TimeAllowance{}))
	assert.EqualValues(t, 5, count(t, conn, &models.Client{}))
	assert.EqualValues(t, 4, count(t, conn, &models.Product{}))
	assert.EqualValues(t, 2, count(t, conn, &models.Seller{}))
}
