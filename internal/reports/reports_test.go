package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/testutil"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	conn := testutil.OpenDB(t)
	testutil.SeedCatalogs(t, conn)
	return NewRepository(conn), conn
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"":                    TypeClients,
		"Listado_Clientes":    TypeClients,
		"listado_productos":   TypeProducts,
		"historial_ventas":    TypeHistory,
		"COMPARACION_TIEMPOS": TypeComparison,
		"ventas":              TypeSales,
	}
	for raw, want := range cases {
		got, ok := NormalizeType(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	got, ok := NormalizeType(" Inventario ")
	assert.False(t, ok)
	assert.Equal(t, "inventario", got)
	assert.Equal(t, "desconocido", fileLabel("../"))
	assert.Equal(t, "Comparacion", titleCase(TypeComparison))
	assert.Equal(t, "Foo_Bar", titleCase("foo_bar"))
}

func TestSalesTableSumsExactly(t *testing.T) {
	r, conn := newRepo(t)
	testutil.MustCreateClient(t, conn, "100", "Tienda Uno")
	testutil.MustCreateSale(t, conn, "100", nil, "10.10", day(2025, 3, 1))
	testutil.MustCreateSale(t, conn, "100", nil, "0.20", day(2025, 3, 2))
	testutil.MustCreateSale(t, conn, "100", nil, "5.00", day(2025, 4, 1))

	req := Request{StartDate: "2025-03-01", EndDate: "2025-03-31"}
	table, err := salesTable(context.Background(), r, req, filters{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2025-03-02", "Tienda Uno", "0.20", "-"}, table.Rows[0])
	assert.Equal(t, []string{"Total ventas: 2", "Monto acumulado: Q10.30"}, table.Summary)

	table, err = salesTable(context.Background(), r, req, filters{"desde": "2025-04-01", "hasta": "2025-04-01"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Monto acumulado: Q5.00", table.Summary[1])
}

func TestClientsAndSellersFilters(t *testing.T) {
	r, conn := newRepo(t)
	testutil.MustCreateClient(t, conn, "200", "Bodega Central")
	a := testutil.MustCreateClient(t, conn, "100", "Abarrotería")
	require.NoError(t, conn.Model(a).Update("estatus_credito", "A").Error)

	table, err := clientsTable(context.Background(), r, Request{}, filters{"estatus_credito": "A"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "100", table.Rows[0][0])
	assert.Equal(t, []string{"Total clientes: 1"}, table.Summary)

	table, err = clientsTable(context.Background(), r, Request{}, filters{})
	require.NoError(t, err)
	assert.Equal(t, "Abarrotería", table.Rows[0][1])

	high := testutil.MustCreateSeller(t, conn, "900", "Ana")
	testutil.MustCreateSeller(t, conn, "901", "Beto")
	require.NoError(t, conn.Model(high).Update("nivel_exito", 80).Error)

	table, err = sellersTable(context.Background(), r, Request{}, filters{"nivel_min": float64(50)})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"900", "Ana", "3500.00", "80%"}, table.Rows[0])

	table, err = sellersTable(context.Background(), r, Request{}, filters{"nivel_min": "alto"})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "0%", table.Rows[1][3])
}

func TestHistoryAndComparisonTables(t *testing.T) {
	r, conn := newRepo(t)
	testutil.MustCreateClient(t, conn, "100", "Tienda Uno")
	testutil.MustCreateSeller(t, conn, "900", "Ana")
	route := testutil.MustCreateRoute(t, conn, "900", day(2025, 3, 1), "100")
	other := testutil.MustCreateRoute(t, conn, "900", day(2025, 3, 2), "100")

	for i, mins := range []int{10, 15} {
		sale := testutil.MustCreateSale(t, conn, "100", &route.ID, "7.25", day(2025, 3, 1))
		require.NoError(t, conn.Create(&models.HistoricalSale{
			SaleID:             sale.ID,
			RouteID:            &route.ID,
			ClientNIT:          "100",
			SellerDPI:          "900",
			SaleDate:           day(2025, 3, 1).Add(time.Duration(i) * time.Hour),
			SaleTotal:          decimal.RequireFromString("7.25"),
			ActualVisitMinutes: &mins,
			VisitOutcome:       strPtr("VENTA"),
		}).Error)
	}

	table, err := historyTable(context.Background(), r, Request{}, filters{"dpi_vendedor": "900"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2025-03-01", "Tienda Uno", "Ana", "7.25", "VENTA"}, table.Rows[0])
	assert.Equal(t, "Total facturado: Q14.50", table.Summary[1])

	table, err = comparisonTable(context.Background(), r, Request{}, filters{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, fmt.Sprint(other.ID), table.Rows[0][0])
	assert.Equal(t, "-", table.Rows[0][5])
	assert.Equal(t, "12.5", table.Rows[1][5])
	assert.Equal(t, []string{"Total rutas analizadas: 2"}, table.Summary)
}

func TestDocumentReprintsHeaderOnPageBreak(t *testing.T) {
	rows := make([][]string, 80)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("%03d", i), "Cliente"}
	}
	doc := newDocument("Clientes", day(2025, 3, 1), "N/A")
	doc.pdf.SetCompression(false)
	doc.table(Table{Columns: []Column{{Label: "NIT"}, {Label: "Nombre", Offset: 90}}, Rows: rows, Summary: []string{"Total clientes: 80"}})
	require.GreaterOrEqual(t, doc.pages(), 2)

	var buf bytes.Buffer
	require.NoError(t, doc.write(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF"))
	assert.Equal(t, doc.pages(), strings.Count(out, "(Reporte: Clientes)"))
	assert.Contains(t, out, "(Total clientes: 80)")

	empty := newDocument("Ventas", day(2025, 3, 1), "N/A")
	empty.pdf.SetCompression(false)
	empty.table(Table{Columns: []Column{{Label: "Fecha"}}})
	buf.Reset()
	require.NoError(t, empty.write(&buf))
	assert.Contains(t, buf.String(), "("+noRowsText+")")
	assert.Equal(t, 1, empty.pages())
}

func TestGenerateAndOpen(t *testing.T) {
	r, conn := newRepo(t)
	testutil.MustCreateClient(t, conn, "100", "Tienda Uno")
	dir := t.TempDir()
	svc, err := NewService(ServiceParams{
		Repo:   r,
		Dir:    dir,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:    func() time.Time { return day(2025, 3, 1) },
	})
	require.NoError(t, err)
	ctx := context.Background()

	dto, err := svc.Generate(ctx, Request{Type: "listado_clientes"})
	require.NoError(t, err)
	assert.Equal(t, "report_clientes_"+dto.UUID+".pdf", dto.FileName)
	assert.True(t, strings.HasPrefix(dto.FilePath, dir))

	dl, err := svc.Open(ctx, dto.UUID)
	require.NoError(t, err)
	head := make([]byte, 4)
	_, err = io.ReadFull(dl.File, head)
	require.NoError(t, err)
	require.NoError(t, dl.File.Close())
	assert.Equal(t, "%PDF", string(head))
	assert.Equal(t, dto.FileName, dl.FileName)

	unknown, err := svc.Generate(ctx, Request{Type: "Inventario"})
	require.NoError(t, err)
	assert.Equal(t, "report_inventario_"+unknown.UUID+".pdf", unknown.FileName)

	_, err = svc.Open(ctx, "no-existe")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Reporte no existe", pkgerrors.As(err).Message())

	require.NoError(t, os.Remove(dto.FilePath))
	_, err = svc.Open(ctx, dto.UUID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Archivo no encontrado", pkgerrors.As(err).Message())
}

func strPtr(v string) *string { return &v }
