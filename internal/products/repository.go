package product

import (
	"context"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/internal/repo"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository wires together all product-related persistence helpers.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// FindByCode loads the product without associations.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "codigo = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByCodes loads the products with the given codes keyed by code.
func (r *Repository) FindByCodes(ctx context.Context, codes []string) (map[string]models.Product, error) {
	result := make(map[string]models.Product, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("codigo IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.Code] = row
	}
	return result, nil
}

// List pages products ordered by code, optionally matching one code exactly.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, int64, error) {
	query := r.DB(ctx).Model(&models.Product{}).Order("codigo ASC")
	if code := strings.TrimSpace(filters.Code); code != "" {
		query = query.Where("codigo = ?", code)
	}
	if packaging := strings.TrimSpace(filters.Packaging); packaging != "" {
		query = query.Where("presentacion = ?", packaging)
	}
	var rows []models.Product
	count, err := repo.Paginate(query, params, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) PackagingExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Packaging{}).Where("presentacion = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Save(product).Error
}

// DeleteProduct removes the product; sale lines keep a null product code.
func (r *Repository) DeleteProduct(ctx context.Context, code string) (bool, error) {
	db := r.DB(ctx)
	if err := db.Model(&models.SaleLine{}).Where("codigo_producto = ?", code).Update("codigo_producto", nil).Error; err != nil {
		return false, err
	}
	res := db.Where("codigo = ?", code).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}
