package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/megatech/storefront-backend/internal/inventory"
	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db"
	"github.com/megatech/storefront-backend/pkg/logger"
)

func setupCatalogTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", t.Name())
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn, Driver: "sqlite"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '{}',
  description TEXT NOT NULL DEFAULT '{}',
  ingredients TEXT NOT NULL DEFAULT '{}',
  category TEXT NOT NULL DEFAULT '{}',
  sub_category TEXT NOT NULL DEFAULT '{}',
  brand TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  sale_price TEXT,
  currency TEXT NOT NULL DEFAULT 'GEL',
  slug TEXT NOT NULL UNIQUE,
  barcode TEXT,
  images TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS inventory_items (
  product_id TEXT PRIMARY KEY,
  quantity INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`
	movements := `
CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  before_qty INTEGER NOT NULL,
  after_qty INTEGER NOT NULL,
  actor TEXT NOT NULL DEFAULT 'system',
  reason TEXT,
  created_at DATETIME
);`

	require.NoError(t, client.DB().Exec(products).Error)
	require.NoError(t, client.DB().Exec(items).Error)
	require.NoError(t, client.DB().Exec(movements).Error)
	return client
}

func newTestCatalog(t *testing.T) (Service, inventory.Service, *db.Client) {
	t.Helper()

	client := setupCatalogTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})

	stock, err := inventory.NewService(inventory.NewRepository(client.DB()), client, logg)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(client.DB()), client, stock, logg)
	require.NoError(t, err)
	return svc, stock, client
}
