// Package testutil opens throwaway sqlite databases and seeds rows for
// repository and service tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns an in-memory sqlite database with every model migrated.
// A single pooled connection keeps transactions and plain reads on the same
// handle.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return conn
}

// OpenClient wraps OpenDB in a db.Client for services that run transactions.
func OpenClient(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := OpenDB(t)
	return db.NewFromConn(conn), conn
}

// SeedCatalogs inserts the lookup rows most tests rely on: credit status B,
// packaging CAJA, every visit outcome and time allowances 1 (15 min) and 2 (30 min).
func SeedCatalogs(t testing.TB, conn *gorm.DB) {
	t.Helper()
	rows := []any{
		&models.CreditStatus{Code: "A", Description: strPtr("Excelente")},
		&models.CreditStatus{Code: "B", Description: strPtr("Regular")},
		&models.Packaging{Code: "CAJA", Description: strPtr("Caja")},
		&models.Packaging{Code: "UNIDAD", Description: strPtr("Unidad")},
		&models.VisitOutcome{Code: "PENDIENTE", Description: strPtr("Pendiente")},
		&models.VisitOutcome{Code: "VENTA", Description: strPtr("Venta")},
		&models.VisitOutcome{Code: "NO_CONCRETADA", Description: strPtr("Sin venta")},
		&models.TimeAllowance{ID: 1, Minutes: 15, Description: "Corta"},
		&models.TimeAllowance{ID: 2, Minutes: 30, Description: "Media"},
	}
	for _, row := range rows {
		if err := conn.Create(row).Error; err != nil {
			t.Fatalf("seed catalog %T: %v", row, err)
		}
	}
}

func MustCreateClient(t testing.TB, conn *gorm.DB, nit, name string) *models.Client {
	t.Helper()
	client := &models.Client{NIT: nit, Name: name, CreditStatus: "B"}
	if err := conn.Create(client).Error; err != nil {
		t.Fatalf("create client %s: %v", nit, err)
	}
	return client
}

func MustCreateSeller(t testing.TB, conn *gorm.DB, dpi, name string) *models.Seller {
	t.Helper()
	seller := &models.Seller{DPI: dpi, Name: name, Salary: decimal.RequireFromString("3500.00")}
	if err := conn.Create(seller).Error; err != nil {
		t.Fatalf("create seller %s: %v", dpi, err)
	}
	return seller
}

func MustCreateProduct(t testing.TB, conn *gorm.DB, code, description, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Code:        code,
		Description: description,
		UnitPrice:   decimal.RequireFromString(price),
		Packaging:   "CAJA",
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", code, err)
	}
	return product
}

// MustCreateRoute creates a route for sellerDPI with one assignment per client,
// visit orders starting at 1 and time allowance 1.
func MustCreateRoute(t testing.TB, conn *gorm.DB, sellerDPI string, date time.Time, clientNITs ...string) *models.Route {
	t.Helper()
	route := &models.Route{SellerDPI: sellerDPI, Date: date, Status: "PENDIENTE"}
	if err := conn.Omit("Seller", "Assignments").Create(route).Error; err != nil {
		t.Fatalf("create route: %v", err)
	}
	for i, nit := range clientNITs {
		assignment := &models.RouteClient{
			RouteID:         route.ID,
			ClientNIT:       nit,
			VisitOrder:      i + 1,
			TimeAllowanceID: 1,
			Outcome:         "PENDIENTE",
		}
		if err := conn.Omit("Client", "TimeAllowance").Create(assignment).Error; err != nil {
			t.Fatalf("create assignment: %v", err)
		}
		route.Assignments = append(route.Assignments, *assignment)
	}
	return route
}

// MustCreateSale inserts a sale header with the given total and no lines.
func MustCreateSale(t testing.TB, conn *gorm.DB, clientNIT string, routeID *int64, total string, at time.Time) *models.Sale {
	t.Helper()
	sale := &models.Sale{Date: at, ClientNIT: clientNIT, RouteID: routeID, Total: decimal.RequireFromString(total)}
	if err := conn.Omit("Lines").Create(sale).Error; err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return sale
}

func strPtr(v string) *string {
	return &v
}
