package reports

import (
	"context"
	"time"

	"github.com/angelmondragon/rutaventas-backend/internal/repo"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// DateRange is a half-open day range; nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (d DateRange) apply(query *gorm.DB, column string) *gorm.DB {
	if d.From != nil {
		query = query.Where(column+" >= ?", dayStart(*d.From))
	}
	if d.To != nil {
		query = query.Where(column+" < ?", dayStart(*d.To).AddDate(0, 0, 1))
	}
	return query
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *Repository) Clients(ctx context.Context, creditStatus string) ([]models.Client, error) {
	query := r.DB(ctx).Order("nombre").Order("nit")
	if creditStatus != "" {
		query = query.Where("estatus_credito = ?", creditStatus)
	}
	var rows []models.Client
	return rows, query.Find(&rows).Error
}

func (r *Repository) Products(ctx context.Context, packaging string) ([]models.Product, error) {
	query := r.DB(ctx).Order("descripcion").Order("codigo")
	if packaging != "" {
		query = query.Where("presentacion = ?", packaging)
	}
	var rows []models.Product
	return rows, query.Find(&rows).Error
}

func (r *Repository) Sellers(ctx context.Context, minSuccess *int) ([]models.Seller, error) {
	query := r.DB(ctx).Order("nombre").Order("dpi")
	if minSuccess != nil {
		query = query.Where("nivel_exito >= ?", *minSuccess)
	}
	var rows []models.Seller
	return rows, query.Find(&rows).Error
}

func (r *Repository) Routes(ctx context.Context, dates DateRange, sellerDPI string) ([]models.Route, error) {
	query := dates.apply(r.DB(ctx).Preload("Seller"), "fecha")
	if sellerDPI != "" {
		query = query.Where("dpi_vendedor = ?", sellerDPI)
	}
	var rows []models.Route
	return rows, query.Order("fecha DESC").Order("id_ruta DESC").Find(&rows).Error
}

func (r *Repository) Sales(ctx context.Context, dates DateRange, clientNIT string) ([]models.Sale, error) {
	query := dates.apply(r.DB(ctx), "fecha")
	if clientNIT != "" {
		query = query.Where("nit_cliente = ?", clientNIT)
	}
	var rows []models.Sale
	return rows, query.Order("fecha DESC").Order("id_venta DESC").Find(&rows).Error
}

func (r *Repository) History(ctx context.Context, dates DateRange, sellerDPI string) ([]models.HistoricalSale, error) {
	query := dates.apply(r.DB(ctx), "fecha_venta")
	if sellerDPI != "" {
		query = query.Where("dpi_vendedor = ?", sellerDPI)
	}
	var rows []models.HistoricalSale
	return rows, query.Order("fecha_venta DESC").Order("id_historial_venta DESC").Find(&rows).Error
}

// ClientNames maps NIT to name for the given clients.
func (r *Repository) ClientNames(ctx context.Context, nits []string) (map[string]string, error) {
	out := make(map[string]string, len(nits))
	if len(nits) == 0 {
		return out, nil
	}
	var rows []models.Client
	if err := r.DB(ctx).Select("nit", "nombre").Where("nit IN ?", nits).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.NIT] = row.Name
	}
	return out, nil
}

func (r *Repository) SellerNames(ctx context.Context, dpis []string) (map[string]string, error) {
	out := make(map[string]string, len(dpis))
	if len(dpis) == 0 {
		return out, nil
	}
	var rows []models.Seller
	if err := r.DB(ctx).Select("dpi", "nombre").Where("dpi IN ?", dpis).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.DPI] = row.Name
	}
	return out, nil
}

// VisitMinutes holds one archived visit duration of a route.
type VisitMinutes struct {
	RouteID int64 `gorm:"column:id_ruta"`
	Minutes int   `gorm:"column:tiempo_real_visita_min"`
}

func (r *Repository) ArchivedVisitMinutes(ctx context.Context, routeIDs []int64) ([]VisitMinutes, error) {
	if len(routeIDs) == 0 {
		return nil, nil
	}
	var rows []VisitMinutes
	err := r.DB(ctx).
		Model(&models.HistoricalSale{}).
		Select("id_ruta", "tiempo_real_visita_min").
		Where("id_ruta IN ?", routeIDs).
		Where("tiempo_real_visita_min IS NOT NULL").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) CreateFile(ctx context.Context, row *models.ReportFile) error {
	return r.DB(ctx).Create(row).Error
}

func (r *Repository) FindFile(ctx context.Context, uuid string) (*models.ReportFile, error) {
	var row models.ReportFile
	if err := r.DB(ctx).Where("uuid = ?", uuid).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
