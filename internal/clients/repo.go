package clients

import (
	"context"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/internal/repo"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists clients.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// List returns one page of clients ordered by NIT. nit, when set, is matched
// exactly ignoring case.
func (r *Repository) List(ctx context.Context, nit string, params pagination.Params) ([]models.Client, int64, error) {
	query := r.DB(ctx).Model(&models.Client{}).Order("nit ASC")
	if nit = strings.TrimSpace(nit); nit != "" {
		query = query.Where("LOWER(nit) = LOWER(?)", nit)
	}
	var rows []models.Client
	count, err := repo.Paginate(query, params, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *Repository) FindByNIT(ctx context.Context, nit string) (*models.Client, error) {
	var client models.Client
	if err := r.DB(ctx).First(&client, "nit = ?", nit).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// FindByNITs loads the clients with the given NITs keyed by NIT.
func (r *Repository) FindByNITs(ctx context.Context, nits []string) (map[string]models.Client, error) {
	result := make(map[string]models.Client, len(nits))
	if len(nits) == 0 {
		return result, nil
	}
	var rows []models.Client
	if err := r.DB(ctx).Where("nit IN ?", nits).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.NIT] = row
	}
	return result, nil
}

// EmailTaken reports whether another client already uses email.
func (r *Repository) EmailTaken(ctx context.Context, email, excludeNIT string) (bool, error) {
	var count int64
	query := r.DB(ctx).Model(&models.Client{}).Where("correo_electronico = ?", email)
	if excludeNIT != "" {
		query = query.Where("nit <> ?", excludeNIT)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, client *models.Client) error {
	return r.DB(ctx).Create(client).Error
}

// Save writes every column of an existing client.
func (r *Repository) Save(ctx context.Context, client *models.Client) error {
	return r.DB(ctx).Save(client).Error
}

// Delete removes the client and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, nit string) (bool, error) {
	res := r.DB(ctx).Where("nit = ?", nit).Delete(&models.Client{})
	return res.RowsAffected > 0, res.Error
}
