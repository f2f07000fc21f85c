// Package seed loads a small demo data set: one administrator, the lookup
// catalogs, five clients, four products, two sellers with three archived
// routes each and two photo evidence rows. Running it again leaves existing
// rows untouched.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/evidence"
	"github.com/angelmondragon/rutaventas-backend/internal/routes"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/internal/users"
	"github.com/angelmondragon/rutaventas-backend/pkg/config"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/security"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	AdminUsername = "admin"
	AdminPassword = "admin123"

	routesPerSeller    = 3
	visitMinutes       = 35
	plannedRouteMin    = 180
	actualRouteMin     = 165
	soldQuantity       = 3
	plannedAllowanceID = 1
)

// Params wires the stores the seed writes through. Routes must archive
// recorridos so every seeded sale gets its history row.
type Params struct {
	DB       *gorm.DB
	Users    *users.Repository
	Routes   routes.Service
	Evidence evidence.Service
	Password config.PasswordConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

// Summary counts what a run inserted.
type Summary struct {
	Users    int
	Routes   int
	Evidence int
}

type clientRow struct {
	nit, name, credit string
}

type productRow struct {
	code, description, color, price, packaging string
}

type sellerRow struct {
	dpi, name, salary string
	successRate       int
}

var (
	demoClients = []clientRow{
		{"000000001", "Cliente Uno", "A"},
		{"000000002", "Cliente Dos", "B"},
		{"000000003", "Cliente Tres", "A"},
		{"000000004", "Cliente Cuatro", "C"},
		{"000000005", "Cliente Cinco", "B"},
	}
	demoProducts = []productRow{
		{"P001", "Producto Rojo", "Rojo", "10.00", "INDIVIDUAL"},
		{"P002", "Producto Azul", "Azul", "120.00", "DOCENA"},
		{"P003", "Producto Verde", "Verde", "55.50", "INDIVIDUAL"},
		{"P004", "Producto Negro", "Negro", "89.99", "DOCENA"},
	}
	demoSellers = []sellerRow{
		{"0000000000001", "Vendedor Demo", "1500.00", 68},
		{"0000000000002", "Vendedor Expo", "1750.00", 82},
	}
)

// Run inserts the demo data set.
func Run(ctx context.Context, p Params) (Summary, error) {
	var summary Summary
	switch {
	case p.DB == nil:
		return summary, fmt.Errorf("database required")
	case p.Users == nil:
		return summary, fmt.Errorf("user repository required")
	case p.Routes == nil:
		return summary, fmt.Errorf("route service required")
	case p.Evidence == nil:
		return summary, fmt.Errorf("evidence service required")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	created, err := seedAdmin(ctx, p)
	if err != nil {
		return summary, err
	}
	if created {
		summary.Users++
	}
	if err := seedReferenceData(ctx, p.DB); err != nil {
		return summary, err
	}

	var routeIDs []int64
	var saleIDs []int64
	today := truncateDay(now())
	for offset, seller := range demoSellers {
		for day := 0; day < routesPerSeller; day++ {
			date := today.AddDate(0, 0, -(offset*routesPerSeller + day))
			product := demoProducts[(offset+day)%len(demoProducts)]
			routeID, saleID, created, err := seedRoute(ctx, p, seller, date, offset, day, product.code)
			if err != nil {
				return summary, err
			}
			if created {
				summary.Routes++
			}
			routeIDs = append(routeIDs, routeID)
			if saleID != 0 {
				saleIDs = append(saleIDs, saleID)
			}
		}
	}

	n, err := seedEvidence(ctx, p, routeIDs, saleIDs)
	if err != nil {
		return summary, err
	}
	summary.Evidence = n

	if p.Logger != nil {
		p.Logger.Info(p.Logger.WithFields(ctx, map[string]any{
			"users":    summary.Users,
			"routes":   summary.Routes,
			"evidence": summary.Evidence,
		}), "demo data seeded")
	}
	return summary, nil
}

func seedAdmin(ctx context.Context, p Params) (bool, error) {
	_, err := p.Users.FindByUsername(ctx, AdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	hash, err := security.HashPassword(AdminPassword, p.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := p.Users.Create(ctx, users.CreateUserDTO{
		Username:     AdminUsername,
		Email:        "admin@example.com",
		PasswordHash: hash,
		FirstName:    "Admin",
		Role:         enums.UserRoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func seedReferenceData(ctx context.Context, db *gorm.DB) error {
	rows := []any{
		&[]models.CreditStatus{
			{Code: "A", Description: strPtr("Crédito excelente")},
			{Code: "B", Description: strPtr("Crédito regular")},
			{Code: "C", Description: strPtr("Crédito restringido")},
		},
		&[]models.VisitOutcome{
			{Code: "PENDIENTE", Description: strPtr("Visita pendiente")},
			{Code: "VENTA", Description: strPtr("Visita con venta")},
			{Code: "NO_CONCRETADA", Description: strPtr("Visita sin venta")},
		},
		&[]models.Packaging{
			{Code: "INDIVIDUAL", Description: strPtr("Unidad individual")},
			{Code: "DOCENA", Description: strPtr("Docena")},
		},
		&[]models.TimeAllowance{
			{ID: 1, Minutes: 60, Description: "1 hora"},
			{ID: 2, Minutes: 120, Description: "2 horas"},
		},
	}

	clients := make([]models.Client, 0, len(demoClients))
	for i, c := range demoClients {
		clients = append(clients, models.Client{
			NIT:          c.nit,
			Name:         c.name,
			Address:      strPtr(fmt.Sprintf("Calle %d", i+1)),
			Email:        strPtr(fmt.Sprintf("c%d@example.com", i+1)),
			CreditStatus: c.credit,
		})
	}
	products := make([]models.Product, 0, len(demoProducts))
	for _, pr := range demoProducts {
		products = append(products, models.Product{
			Code:        pr.code,
			Description: pr.description,
			Color:       strPtr(pr.color),
			UnitPrice:   decimal.RequireFromString(pr.price),
			Packaging:   pr.packaging,
		})
	}
	sellers := make([]models.Seller, 0, len(demoSellers))
	for _, s := range demoSellers {
		rate := s.successRate
		sellers = append(sellers, models.Seller{
			DPI:         s.dpi,
			Name:        s.name,
			Email:       strPtr(strings.ToLower(strings.ReplaceAll(s.name, " ", ".")) + "@example.com"),
			Salary:      decimal.RequireFromString(s.salary),
			SuccessRate: &rate,
		})
	}
	rows = append(rows, &clients, &products, &sellers)

	// one session per batch; a shared Clauses handle reuses its statement.
	for _, batch := range rows {
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(batch).Error; err != nil {
			return fmt.Errorf("seed %T: %w", batch, err)
		}
	}
	return nil
}

// seedRoute creates one planned route and records its sale. The route name
// embeds the seller and the date, so it doubles as the idempotency key.
func seedRoute(ctx context.Context, p Params, seller sellerRow, date time.Time, offset, day int, productCode string) (int64, int64, bool, error) {
	name := fmt.Sprintf("Ruta %s %s", strings.Fields(seller.name)[len(strings.Fields(seller.name))-1], date.Format(routes.DateLayout))

	var existing models.Route
	err := p.DB.WithContext(ctx).
		Where("dpi_vendedor = ? AND nombre = ?", seller.dpi, name).
		First(&existing).Error
	switch {
	case err == nil:
		var sale models.Sale
		saleErr := p.DB.WithContext(ctx).Where("id_ruta = ?", existing.ID).Order("id_venta").First(&sale).Error
		if saleErr != nil && !errors.Is(saleErr, gorm.ErrRecordNotFound) {
			return 0, 0, false, fmt.Errorf("lookup sale for %s: %w", name, saleErr)
		}
		return existing.ID, sale.ID, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return 0, 0, false, fmt.Errorf("lookup route %s: %w", name, err)
	}

	km := decimal.NewFromInt(int64(120 - (offset*10 + day*5)))
	assignments := make([]routes.AssignmentInput, 0, 3)
	for i := 0; i < 3; i++ {
		assignments = append(assignments, routes.AssignmentInput{
			ClientNIT:       demoClients[i].nit,
			VisitOrder:      i + 1,
			TimeAllowanceID: plannedAllowanceID,
			Notes:           strPtr("Visita planificada"),
		})
	}
	route, err := p.Routes.Create(ctx, routes.RouteInput{
		SellerDPI:      seller.dpi,
		Date:           date.Format(routes.DateLayout),
		Name:           &name,
		EstimatedKM:    &km,
		PlannedMinutes: intPtr(plannedRouteMin),
		ActualMinutes:  intPtr(actualRouteMin),
		OverallResult:  strPtr("Planificado"),
		Clients:        assignments,
	})
	if err != nil {
		return 0, 0, false, fmt.Errorf("create route %s: %w", name, err)
	}

	soldAt := date.Add(10 * time.Hour)
	result, err := p.Routes.RecordRecorrido(ctx, route.ID, routes.RecorridoInput{
		SaleInput: sales.SaleInput{
			Date:      &soldAt,
			ClientNIT: demoClients[0].nit,
			Lines:     []sales.SaleLineInput{{ProductCode: productCode, Quantity: soldQuantity}},
		},
		ActualVisitMinutes: intPtr(visitMinutes),
	})
	if err != nil {
		return 0, 0, false, fmt.Errorf("record sale for %s: %w", name, err)
	}
	return route.ID, result.ID, true, nil
}

func seedEvidence(ctx context.Context, p Params, routeIDs, saleIDs []int64) (int, error) {
	items := []struct {
		description string
		client      int
		fill        color.RGBA
	}{
		{"Comprobante fotográfico de la visita principal", 0, color.RGBA{R: 0xd9, G: 0x53, B: 0x4f, A: 0xff}},
		{"Evidencia de entrega en tienda secundaria", 1, color.RGBA{R: 0x33, G: 0x7a, B: 0xb7, A: 0xff}},
	}

	created := 0
	for i, item := range items {
		var n int64
		if err := p.DB.WithContext(ctx).Model(&models.PhotoEvidence{}).
			Where("descripcion = ?", item.description).Count(&n).Error; err != nil {
			return created, fmt.Errorf("lookup evidence: %w", err)
		}
		if n > 0 {
			continue
		}

		body, err := placeholderPNG(item.fill)
		if err != nil {
			return created, err
		}
		desc := item.description
		nit := demoClients[item.client].nit
		input := evidence.EvidenceInput{
			Description: &desc,
			Client:      evidence.Ref[string]{Set: true, Value: &nit},
			Image:       &evidence.Upload{Filename: fmt.Sprintf("evidencia_%d.png", i+1), Body: bytes.NewReader(body)},
		}
		if i < len(routeIDs) {
			id := routeIDs[i]
			input.Route = evidence.Ref[int64]{Set: true, Value: &id}
		}
		if i < len(saleIDs) {
			id := saleIDs[i]
			input.Sale = evidence.Ref[int64]{Set: true, Value: &id}
		}
		if _, err := p.Evidence.Upload(ctx, input); err != nil {
			return created, fmt.Errorf("upload evidence %d: %w", i+1, err)
		}
		created++
	}
	return created, nil
}

func placeholderPNG(fill color.RGBA) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
