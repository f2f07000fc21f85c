package sellers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/testutil"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := testutil.OpenDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func intp(v int) *int { return &v }

func TestCreateSellerTrimsNameAndDerivesLevel(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), SellerInput{
		DPI:         "1234567890123",
		Name:        "   Ana López   ",
		Salary:      decimal.RequireFromString("4200"),
		SuccessRate: intp(72),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana López", created.Name)
	assert.Equal(t, "4200.00", created.Salary)
	require.NotNil(t, created.SuccessLevel)
	assert.Equal(t, enums.SuccessLevelHigh, *created.SuccessLevel)
}

func TestCreateSellerRejectsLongNameAfterTrim(t *testing.T) {
	svc, _ := newTestService(t)

	padded := "  " + strings.Repeat("a", 150) + "  "
	_, err := svc.Create(context.Background(), SellerInput{DPI: "1", Name: padded})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), SellerInput{DPI: "2", Name: strings.Repeat("b", 151)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateSellerValidatesRanges(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), SellerInput{
		DPI:         "12A",
		Name:        "Luis",
		Salary:      decimal.RequireFromString("-5"),
		SuccessRate: intp(101),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Contains(t, details, "dpi")
	assert.Contains(t, details, "sueldo")
	assert.Contains(t, details, "nivel_exito_porcent")
}

func TestPatchAndUpdateSeller(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.MustCreateSeller(t, conn, "555", "Carlos")

	patched, err := svc.Patch(context.Background(), "555", SellerPatch{SuccessRate: intp(45)})
	require.NoError(t, err)
	assert.Equal(t, enums.SuccessLevelMedium, *patched.SuccessLevel)

	got, err := svc.Get(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, 45, *got.SuccessRate)

	full, err := svc.Update(context.Background(), "555", SellerInput{Name: "Carlos R", Salary: decimal.Zero})
	require.NoError(t, err)
	assert.Nil(t, full.SuccessLevel)
	assert.Equal(t, "555", full.DPI)
}

func TestRecordVisitForcesSellerFromPath(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.MustCreateSeller(t, conn, "900", "Vendedora")
	testutil.MustCreateClient(t, conn, "100", "Cliente")
	ctx := context.Background()

	older := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.RecordVisit(ctx, "900", VisitInput{ClientNIT: "100", Result: "pendiente", Date: &older})
	require.NoError(t, err)

	visit, err := svc.RecordVisit(ctx, "900", VisitInput{
		ClientNIT:         "100",
		Result:            "VENTA",
		DeliveredProducts: []any{map[string]any{"codigo": "P-1", "cantidad": 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "900", visit.SellerDPI)
	assert.JSONEq(t, `[{"codigo":"P-1","cantidad":2}]`, string(visit.DeliveredProducts))

	visits, err := svc.ListVisits(ctx, "900")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "VENTA", visits[0].Result)
	assert.Equal(t, "PENDIENTE", visits[1].Result)
	assert.JSONEq(t, `[]`, string(visits[1].DeliveredProducts))
}

func TestRecordVisitValidation(t *testing.T) {
	svc, conn := newTestService(t)
	testutil.MustCreateSeller(t, conn, "900", "Vendedora")
	ctx := context.Background()

	_, err := svc.RecordVisit(ctx, "900", VisitInput{ClientNIT: "404", Result: "PERDIDA"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Contains(t, details, "nit_cliente")
	assert.Contains(t, details, "resultado")

	_, err = svc.RecordVisit(ctx, "000", VisitInput{ClientNIT: "1", Result: "VENTA"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
