package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/megatech/storefront-backend/internal/catalog"
	"github.com/megatech/storefront-backend/internal/inventory"
	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db"
	"github.com/megatech/storefront-backend/pkg/logger"
)

func setupOrdersTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", t.Name())
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn, Driver: "sqlite"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	schemas := []string{`
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
);`, `
CREATE TABLE IF NOT EXISTS inventory_items (
  product_id TEXT PRIMARY KEY,
  quantity INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`, `
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
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL DEFAULT 'pending',
  total_amount TEXT NOT NULL,
  client_first_name TEXT NOT NULL,
  client_last_name TEXT NOT NULL,
  client_email TEXT NOT NULL,
  client_phone_number TEXT NOT NULL,
  client_email_verified INTEGER NOT NULL DEFAULT 0,
  client_email_verified_at DATETIME,
  payment_intent_id TEXT,
  payment_reference TEXT UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '{}',
  price TEXT NOT NULL,
  quantity INTEGER NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS failed_orders (
  id TEXT PRIMARY KEY,
  client_first_name TEXT NOT NULL,
  client_last_name TEXT NOT NULL,
  client_email TEXT NOT NULL,
  client_phone_number TEXT NOT NULL,
  client_email_verified INTEGER NOT NULL DEFAULT 0,
  client_email_verified_at DATETIME,
  items TEXT NOT NULL DEFAULT '[]',
  reason TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`}

	for _, schema := range schemas {
		require.NoError(t, client.DB().Exec(schema).Error)
	}
	return client
}

type testEnv struct {
	svc     Service
	catalog catalog.Service
	stock   inventory.Service
	client  *db.Client

	verifier *stubVerifier
	payments *stubPaymentInitializer
	notifier *stubNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	client := setupOrdersTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})

	stock, err := inventory.NewService(inventory.NewRepository(client.DB()), client, logg)
	require.NoError(t, err)

	catalogSvc, err := catalog.NewService(catalog.NewRepository(client.DB()), client, stock, logg)
	require.NoError(t, err)

	env := &testEnv{
		catalog:  catalogSvc,
		stock:    stock,
		client:   client,
		verifier: &stubVerifier{verified: true},
		payments: &stubPaymentInitializer{},
		notifier: &stubNotifier{},
	}

	svc, err := NewService(
		NewRepository(client.DB()),
		catalog.NewRepository(client.DB()),
		stock,
		env.verifier,
		env.payments,
		env.notifier,
		client,
		logg,
	)
	require.NoError(t, err)
	env.svc = svc
	return env
}
