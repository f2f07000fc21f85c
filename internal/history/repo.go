package history

import (
	"context"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/repo"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// ListFilters narrows snapshots by seller, route and an inclusive sale date
// range.
type ListFilters struct {
	SellerDPI string
	RouteID   *int64
	From      *time.Time
	To        *time.Time
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("linea ASC") })
}

func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.HistoricalSale, int64, error) {
	query := r.DB(ctx).Model(&models.HistoricalSale{})
	if filters.SellerDPI != "" {
		query = query.Where("dpi_vendedor = ?", filters.SellerDPI)
	}
	if filters.RouteID != nil {
		query = query.Where("id_ruta = ?", *filters.RouteID)
	}
	if filters.From != nil {
		query = query.Where("fecha_venta >= ?", dayStart(*filters.From))
	}
	if filters.To != nil {
		query = query.Where("fecha_venta < ?", dayStart(*filters.To).AddDate(0, 0, 1))
	}
	query = query.Order("fecha_venta DESC").Order("id_historial_venta DESC")

	var rows []models.HistoricalSale
	count, err := repo.Paginate(query, params, &rows, withLines)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) FindBySaleID(ctx context.Context, saleID int64) (*models.HistoricalSale, error) {
	var row models.HistoricalSale
	if err := withLines(r.DB(ctx)).First(&row, "id_venta = ?", saleID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, row *models.HistoricalSale) error {
	return r.DB(ctx).Create(row).Error
}

func (r *Repository) FindSale(ctx context.Context, saleID int64) (*models.Sale, error) {
	var sale models.Sale
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("linea ASC") }).
		First(&sale, "id_venta = ?", saleID).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) FindRoute(ctx context.Context, routeID int64) (*models.Route, error) {
	var route models.Route
	if err := r.DB(ctx).First(&route, "id_ruta = ?", routeID).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

// FindAssignment returns the client's assignment on the route with its time
// allowance, or gorm.ErrRecordNotFound.
func (r *Repository) FindAssignment(ctx context.Context, routeID int64, nit string) (*models.RouteClient, error) {
	var assignment models.RouteClient
	err := r.DB(ctx).
		Preload("TimeAllowance").
		Where("id_ruta = ? AND nit_cliente = ?", routeID, nit).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *Repository) SellerExists(ctx context.Context, dpi string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Seller{}).Where("dpi = ?", dpi).Count(&count).Error
	return count > 0, err
}

// ProductDescriptions maps product codes to their current description.
func (r *Repository) ProductDescriptions(ctx context.Context, codes []string) (map[string]string, error) {
	out := make(map[string]string, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Select("codigo", "descripcion").Where("codigo IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Code] = row.Description
	}
	return out, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
