package catalog

import (
	"context"

	"github.com/angelmondragon/rutaventas-backend/internal/repo"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the lookup tables.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) ListCreditStatuses(ctx context.Context) ([]models.CreditStatus, error) {
	var rows []models.CreditStatus
	err := r.DB(ctx).Order("estatus_credito ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListPackagings(ctx context.Context) ([]models.Packaging, error) {
	var rows []models.Packaging
	err := r.DB(ctx).Order("presentacion ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListVisitOutcomes(ctx context.Context) ([]models.VisitOutcome, error) {
	var rows []models.VisitOutcome
	err := r.DB(ctx).Order("resultado_visita ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListTimeAllowances(ctx context.Context) ([]models.TimeAllowance, error) {
	var rows []models.TimeAllowance
	err := r.DB(ctx).Order("id_tiempo_cliente ASC").Find(&rows).Error
	return rows, err
}

// PackagingExists reports whether code is a known packaging.
func (r *Repository) PackagingExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Packaging{}).Where("presentacion = ?", code).Count(&count).Error
	return count > 0, err
}

// CreditStatusExists reports whether code is a known credit status.
func (r *Repository) CreditStatusExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.CreditStatus{}).Where("estatus_credito = ?", code).Count(&count).Error
	return count > 0, err
}

// FindTimeAllowances loads the allowances with the given ids keyed by id.
func (r *Repository) FindTimeAllowances(ctx context.Context, ids []int16) (map[int16]models.TimeAllowance, error) {
	result := make(map[int16]models.TimeAllowance, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.TimeAllowance
	if err := r.DB(ctx).Where("id_tiempo_cliente IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

// ExistingVisitOutcomes returns the subset of codes present in the catalog.
func (r *Repository) ExistingVisitOutcomes(ctx context.Context, codes []string) (map[string]struct{}, error) {
	result := make(map[string]struct{}, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	var found []string
	if err := r.DB(ctx).Model(&models.VisitOutcome{}).Where("resultado_visita IN ?", codes).Pluck("resultado_visita", &found).Error; err != nil {
		return nil, err
	}
	for _, code := range found {
		result[code] = struct{}{}
	}
	return result, nil
}
