package routes

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

func withAssignments(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("orden_visita ASC") }).
		Preload("Assignments.Client").
		Preload("Assignments.TimeAllowance")
}

func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Route, int64, error) {
	var rows []models.Route
	query := r.DB(ctx).Model(&models.Route{}).Order("id_ruta ASC")
	count, err := repo.Paginate(query, params, &rows, withAssignments)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

// FindByID loads the route with its assignments in visit order.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Route, error) {
	var route models.Route
	if err := withAssignments(r.DB(ctx)).First(&route, "id_ruta = ?", id).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Route{}).Where("id_ruta = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) SellerExists(ctx context.Context, dpi string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Seller{}).Where("dpi = ?", dpi).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, route *models.Route) error {
	return r.DB(ctx).Omit("Seller", "Assignments").Create(route).Error
}

func (r *Repository) Save(ctx context.Context, route *models.Route) error {
	return r.DB(ctx).Omit("Seller", "Assignments").Save(route).Error
}

// ReplaceAssignments deletes every assignment of the route and inserts rows
// in their place.
func (r *Repository) ReplaceAssignments(ctx context.Context, routeID int64, rows []models.RouteClient) error {
	if err := r.DeleteAssignments(ctx, routeID); err != nil {
		return err
	}
	for i := range rows {
		rows[i].RouteID = routeID
	}
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Omit("Client", "TimeAllowance").Create(&rows).Error
}

func (r *Repository) DeleteAssignments(ctx context.Context, routeID int64) error {
	return r.DB(ctx).Where("id_ruta = ?", routeID).Delete(&models.RouteClient{}).Error
}

// DetachSales clears the route reference of the route's sales and history rows.
func (r *Repository) DetachSales(ctx context.Context, routeID int64) error {
	db := r.DB(ctx)
	if err := db.Model(&models.Sale{}).Where("id_ruta = ?", routeID).Update("id_ruta", nil).Error; err != nil {
		return err
	}
	return db.Model(&models.HistoricalSale{}).Where("id_ruta = ?", routeID).Update("id_ruta", nil).Error
}

func (r *Repository) Delete(ctx context.Context, routeID int64) (bool, error) {
	res := r.DB(ctx).Where("id_ruta = ?", routeID).Delete(&models.Route{})
	return res.RowsAffected > 0, res.Error
}

// VisitMinutes is one recorded actual visit duration of a client on a route.
type VisitMinutes struct {
	ClientNIT string `gorm:"column:nit_cliente"`
	Minutes   int    `gorm:"column:tiempo_real_visita_min"`
}

// ActualVisitMinutes returns the recorded visit durations of the route's
// history rows, skipping rows without a duration.
func (r *Repository) ActualVisitMinutes(ctx context.Context, routeID int64) ([]VisitMinutes, error) {
	var rows []VisitMinutes
	err := r.DB(ctx).
		Model(&models.HistoricalSale{}).
		Select("nit_cliente", "tiempo_real_visita_min").
		Where("id_ruta = ? AND tiempo_real_visita_min IS NOT NULL", routeID).
		Scan(&rows).Error
	return rows, err
}
