package repo

import (
	"context"

	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn returns the raw connection, used by WithTx helpers in embedding repositories.
func (b Base) Conn() *gorm.DB {
	return b.db
}

// Paginate counts the filtered query and loads one page of dest, leaving the
// query's ordering to the caller. Scopes such as preloads only apply to the
// page load, never to the count.
func Paginate(query *gorm.DB, params pagination.Params, dest any, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, err
	}
	scopes = append(scopes, params.Scope())
	if err := query.Session(&gorm.Session{}).Scopes(scopes...).Find(dest).Error; err != nil {
		return 0, err
	}
	return count, nil
}
