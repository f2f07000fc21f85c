package evidence

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

// ListFilters selects evidence by reference; nil fields are ignored.
type ListFilters struct {
	ClientNIT *string
	RouteID   *int64
	SaleID    *int64
}

func withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").Preload("Route").Preload("Sale")
}

func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.PhotoEvidence, int64, error) {
	query := r.DB(ctx).Model(&models.PhotoEvidence{})
	if filters.ClientNIT != nil {
		query = query.Where("nit_cliente = ?", *filters.ClientNIT)
	}
	if filters.RouteID != nil {
		query = query.Where("id_ruta = ?", *filters.RouteID)
	}
	if filters.SaleID != nil {
		query = query.Where("id_venta = ?", *filters.SaleID)
	}
	query = query.Order("registrada_en DESC").Order("id DESC")

	var rows []models.PhotoEvidence
	count, err := repo.Paginate(query, params, &rows, withRefs)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.PhotoEvidence, error) {
	var row models.PhotoEvidence
	if err := withRefs(r.DB(ctx)).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, row *models.PhotoEvidence) error {
	return r.DB(ctx).Omit("Client", "Route", "Sale").Create(row).Error
}

func (r *Repository) Save(ctx context.Context, row *models.PhotoEvidence) error {
	return r.DB(ctx).Omit("Client", "Route", "Sale").Save(row).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.PhotoEvidence{}).Error
}

func (r *Repository) exists(ctx context.Context, model any, column string, value any) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(model).Where(column+" = ?", value).Count(&count).Error
	return count > 0, err
}

func (r *Repository) ClientExists(ctx context.Context, nit string) (bool, error) {
	return r.exists(ctx, &models.Client{}, "nit", nit)
}

func (r *Repository) RouteExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &models.Route{}, "id_ruta", id)
}

func (r *Repository) SaleExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &models.Sale{}, "id_venta", id)
}
