package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/internal/auth"
	"github.com/megatech/storefront-backend/internal/catalog"
	"github.com/megatech/storefront-backend/internal/inventory"
	"github.com/megatech/storefront-backend/internal/orders"
	pkgauth "github.com/megatech/storefront-backend/pkg/auth"
	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db/models"
	"github.com/megatech/storefront-backend/pkg/enums"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/metrics"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, string, string) (*auth.LoginResult, error) {
	return &auth.LoginResult{Token: "stub"}, nil
}

func (stubAuthService) EnsureAdmin(context.Context, string, string) (*models.AdminUser, error) {
	return &models.AdminUser{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) Create(context.Context, catalog.CreateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubCatalogService) Update(context.Context, uuid.UUID, catalog.UpdateProductInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubCatalogService) GetByID(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubCatalogService) GetBySlug(context.Context, string) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubCatalogService) List(context.Context, catalog.ListParams) (pagination.Page[models.Product], error) {
	return pagination.Page[models.Product]{}, nil
}

func (stubCatalogService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubCatalogService) BulkImport(context.Context, []catalog.CreateProductInput) (*catalog.BulkImportResult, error) {
	return &catalog.BulkImportResult{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Place(context.Context, orders.PlaceOrderInput) (*models.Order, error) {
	return &models.Order{ID: uuid.New()}, nil
}

func (stubOrdersService) GetByID(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) List(context.Context, orders.ListParams) (pagination.Page[models.Order], error) {
	return pagination.Page[models.Order]{}, nil
}

func (stubOrdersService) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) ListFailed(context.Context, pagination.Params) (pagination.Page[models.FailedOrder], error) {
	return pagination.Page[models.FailedOrder]{}, nil
}

func (stubOrdersService) Export(context.Context, orders.ExportFilters) ([]models.Order, error) {
	return nil, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Initialize(context.Context, uuid.UUID) (string, error) {
	return "https://pay.example.com/checkout/ref", nil
}

func (stubPaymentsService) HandleNotification(_ context.Context, _ []byte, signature string) error {
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature")
	}
	return nil
}

type stubInventoryService struct{}

func (stubInventoryService) Add(context.Context, *gorm.DB, inventory.MovementInput) (*models.StockMovement, error) {
	return &models.StockMovement{}, nil
}

func (stubInventoryService) Remove(context.Context, *gorm.DB, inventory.MovementInput) (*models.StockMovement, error) {
	return &models.StockMovement{}, nil
}

func (stubInventoryService) Adjust(context.Context, *gorm.DB, inventory.AdjustInput) (*models.StockMovement, error) {
	return &models.StockMovement{}, nil
}

func (stubInventoryService) Quantity(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (stubInventoryService) Stocks(context.Context, pagination.Params) (pagination.Page[models.InventoryItem], error) {
	return pagination.Page[models.InventoryItem]{}, nil
}

func (stubInventoryService) Movements(context.Context, uuid.UUID, pagination.Params) (pagination.Page[models.StockMovement], error) {
	return pagination.Page[models.StockMovement]{}, nil
}

type stubVerificationService struct{}

func (stubVerificationService) RequestCode(context.Context, string) error { return nil }

func (stubVerificationService) Confirm(context.Context, string, string) (bool, error) {
	return true, nil
}

func (stubVerificationService) IsVerified(context.Context, string) (bool, error) {
	return true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "storefront-api",
			ExpirationMinutes: 30,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           stubPinger{},
		Auth:         stubAuthService{},
		Catalog:      stubCatalogService{},
		Orders:       stubOrdersService{},
		Payments:     stubPaymentsService{},
		Inventory:    stubInventoryService{},
		Verification: stubVerificationService{},
	})
}

func adminToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.MintAdminToken(cfg.JWT, time.Now(), pkgauth.AdminTokenPayload{
		AdminID: uuid.New(),
		Email:   "admin@example.com",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Storefront-Env") != "test" {
			t.Fatalf("%s: missing env header", path)
		}
	}
}

func TestAdminRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(testConfig())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/orders"},
		{http.MethodGet, "/api/admin/stock"},
		{http.MethodPost, "/api/admin/products"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestAdminRoutesAcceptValidToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPublicCatalogAndOrderRoutes(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list products: expected 200 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.NewString(), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("get order: expected 200 got %d", resp.Code)
	}
}

func TestPlaceOrderRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestConfirmVerificationRoute(t *testing.T) {
	router := newTestRouter(testConfig())

	body := `{"email":"buyer@example.com","code":"1234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders/confirm-verification", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"verified":true`) {
		t.Fatalf("expected verified flag, got %s", resp.Body.String())
	}
}

func TestWebhookRouteAnswersBareStatuses(t *testing.T) {
	router := newTestRouter(testConfig())

	unsigned := httptest.NewRequest(http.MethodPost, "/api/payments/unipay/webhook", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, unsigned)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned webhook: expected 401 got %d", resp.Code)
	}

	signed := httptest.NewRequest(http.MethodPost, "/api/payments/unipay/webhook", strings.NewReader(`{}`))
	signed.Header.Set("x-unipay-signature", "deadbeef")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, signed)
	if resp.Code != http.StatusOK {
		t.Fatalf("signed webhook: expected 200 got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Fatalf("webhook ack should have no body, got %q", resp.Body.String())
	}
}

func TestMetricsEndpointServedWhenRegistryWired(t *testing.T) {
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reg := prometheus.NewRegistry()
	router := NewRouter(Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           stubPinger{},
		HTTPMetrics:  metrics.NewHTTPMetrics(reg),
		PromRegistry: reg,
		Auth:         stubAuthService{},
		Catalog:      stubCatalogService{},
		Orders:       stubOrdersService{},
		Payments:     stubPaymentsService{},
		Inventory:    stubInventoryService{},
		Verification: stubVerificationService{},
	})

	warmup := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	router.ServeHTTP(httptest.NewRecorder(), warmup)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatalf("expected request counter in scrape output")
	}
}
