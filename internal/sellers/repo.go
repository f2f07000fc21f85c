package sellers

import (
	"context"

	"github.com/angelmondragon/rutaventas-backend/internal/repo"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists sellers and their visit log.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Seller, int64, error) {
	var rows []models.Seller
	count, err := repo.Paginate(r.DB(ctx).Model(&models.Seller{}).Order("dpi ASC"), params, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) FindByDPI(ctx context.Context, dpi string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB(ctx).First(&seller, "dpi = ?", dpi).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *Repository) EmailTaken(ctx context.Context, email, excludeDPI string) (bool, error) {
	var count int64
	query := r.DB(ctx).Model(&models.Seller{}).Where("correo_electronico = ?", email)
	if excludeDPI != "" {
		query = query.Where("dpi <> ?", excludeDPI)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, seller *models.Seller) error {
	return r.DB(ctx).Create(seller).Error
}

func (r *Repository) Save(ctx context.Context, seller *models.Seller) error {
	return r.DB(ctx).Save(seller).Error
}

func (r *Repository) Delete(ctx context.Context, dpi string) (bool, error) {
	res := r.DB(ctx).Where("dpi = ?", dpi).Delete(&models.Seller{})
	return res.RowsAffected > 0, res.Error
}

// ClientExists reports whether a client with nit exists.
func (r *Repository) ClientExists(ctx context.Context, nit string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Client{}).Where("nit = ?", nit).Count(&count).Error
	return count > 0, err
}

// ListVisits returns the seller's visit log, newest first.
func (r *Repository) ListVisits(ctx context.Context, dpi string) ([]models.VisitLog, error) {
	var rows []models.VisitLog
	err := r.DB(ctx).Where("dpi_vendedor = ?", dpi).Order("fecha DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateVisit(ctx context.Context, visit *models.VisitLog) error {
	return r.DB(ctx).Create(visit).Error
}
