package repo

import (
	"context"
	"testing"

	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type pagedRow struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil {
		t.Fatalf("expected non-nil DB when context provided")
	}
	if withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	withoutCtx := base.DB(nil)
	if withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestPaginate_CountsAndSlices(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&pagedRow{}))
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Create(&pagedRow{ID: i, Name: "row"}).Error)
	}

	var rows []pagedRow
	query := db.Model(&pagedRow{}).Order("id DESC")
	count, err := Paginate(query, pagination.Params{Page: 2, Limit: 2}, &rows)
	require.NoError(t, err)

	assert.Equal(t, int64(5), count)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].ID)
	assert.Equal(t, 2, rows[1].ID)
}
