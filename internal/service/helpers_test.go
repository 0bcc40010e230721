package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"foodpos/internal/logging"
	"foodpos/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return sqlx.NewDb(db, "sqlmock"), mock
}

var quietLog = logging.Discard()

type memoryMenuCache struct {
	menus       []model.Menu
	ok          bool
	invalidated int
}

func (c *memoryMenuCache) GetActiveMenus(context.Context) ([]model.Menu, bool) {
	return c.menus, c.ok
}

func (c *memoryMenuCache) SetActiveMenus(_ context.Context, menus []model.Menu) {
	c.menus, c.ok = menus, true
}

func (c *memoryMenuCache) Invalidate(context.Context) {
	c.menus, c.ok = nil, false
	c.invalidated++
}

var orderRowColumns = []string{"id", "customer_name", "total", "amount_paid", "change_amount", "status",
	"payment_method", "payment_status", "created_by", "created_at", "updated_at"}

var itemRowColumns = []string{"id", "order_id", "menu_id", "menu_name", "qty", "price_at_order",
	"subtotal", "status", "note", "selected_variations", "created_at"}
