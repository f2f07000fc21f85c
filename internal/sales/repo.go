package sales

import (
	"context"

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

// ListFilters narrows a sale listing; zero values are ignored.
type ListFilters struct {
	ClientNIT string
	RouteID   *int64
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("linea ASC")
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", orderedLines)
}

func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Sale, int64, error) {
	query := r.DB(ctx).Model(&models.Sale{})
	if filters.ClientNIT != "" {
		query = query.Where("nit_cliente = ?", filters.ClientNIT)
	}
	if filters.RouteID != nil {
		query = query.Where("id_ruta = ?", *filters.RouteID)
	}
	query = query.Order("fecha DESC").Order("id_venta DESC")

	var rows []models.Sale
	count, err := repo.Paginate(query, params, &rows, withLines)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// ListByRoute returns every sale linked to the route, newest first.
func (r *Repository) ListByRoute(ctx context.Context, routeID int64) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.DB(ctx).
		Preload("Lines", orderedLines).
		Where("id_ruta = ?", routeID).
		Order("fecha DESC").Order("id_venta DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	if err := r.DB(ctx).Preload("Lines", orderedLines).First(&sale, "id_venta = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.DB(ctx).Create(sale).Error
}

func (r *Repository) ClientExists(ctx context.Context, nit string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Client{}).Where("nit = ?", nit).Count(&count).Error
	return count > 0, err
}

func (r *Repository) RouteExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Route{}).Where("id_ruta = ?", id).Count(&count).Error
	return count > 0, err
}

// FindProducts returns the products matching codes keyed by code.
func (r *Repository) FindProducts(ctx context.Context, codes []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("codigo IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Code] = row
	}
	return out, nil
}
