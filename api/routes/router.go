package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/megatech/storefront-backend/api/controllers"
	"github.com/megatech/storefront-backend/api/middleware"
	"github.com/megatech/storefront-backend/internal/auth"
	"github.com/megatech/storefront-backend/internal/catalog"
	"github.com/megatech/storefront-backend/internal/inventory"
	"github.com/megatech/storefront-backend/internal/orders"
	"github.com/megatech/storefront-backend/internal/payments"
	"github.com/megatech/storefront-backend/internal/verification"
	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/metrics"
	"github.com/megatech/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        *redis.Client
	HTTPMetrics  *metrics.HTTPMetrics
	PromRegistry *prometheus.Registry

	Auth         auth.Service
	Catalog      catalog.Service
	Orders       orders.Service
	Payments     payments.Service
	Inventory    inventory.Service
	Verification verification.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	verificationPolicy := middleware.NewRateLimitPolicy(
		"verification",
		cfg.RateLimit.VerificationWindow,
		cfg.RateLimit.VerificationIPLimit,
		cfg.RateLimit.VerificationEmailLimit,
	)
	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, redisPinger(d.Redis)))
	})

	if d.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RateLimit(verificationPolicy, d.Redis, logg)).
				Post("/request-verification", controllers.RequestVerification(d.Verification, logg))
			r.Post("/confirm-verification", controllers.ConfirmVerification(d.Verification, logg))
			r.Post("/", controllers.PlaceOrder(d.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(d.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(d.Catalog, logg))
			r.Get("/{productId}", controllers.GetProduct(d.Catalog, logg))
		})

		r.Route("/payments/unipay", func(r chi.Router) {
			r.Post("/init", controllers.InitPayment(d.Payments, logg))
			r.Post("/webhook", controllers.UnipayWebhook(d.Payments, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RateLimit(loginPolicy, d.Redis, logg)).
				Post("/login", controllers.AdminLogin(d.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(cfg.JWT, logg))

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.ListOrders(d.Orders, logg))
					r.Get("/failed", controllers.ListFailedOrders(d.Orders, logg))
					r.Get("/export", controllers.ExportOrders(d.Orders, logg))
					r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(d.Orders, logg))
				})

				r.Route("/products", func(r chi.Router) {
					r.Post("/", controllers.CreateProduct(d.Catalog, logg))
					r.Post("/import", controllers.ImportProducts(d.Catalog, logg))
					r.Patch("/{productId}", controllers.UpdateProduct(d.Catalog, logg))
					r.Delete("/{productId}", controllers.DeleteProduct(d.Catalog, logg))
				})

				r.Route("/stock", func(r chi.Router) {
					r.Get("/", controllers.StockList(d.Inventory, logg))
					r.Get("/logs", controllers.StockLogs(d.Inventory, logg))
					r.Post("/add", controllers.StockAdd(d.Inventory, logg))
					r.Post("/remove", controllers.StockRemove(d.Inventory, logg))
					r.Post("/adjust", controllers.StockAdjust(d.Inventory, logg))
				})
			})
		})
	})

	return r
}

// redisPinger avoids a typed-nil interface when redis is not configured.
func redisPinger(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
