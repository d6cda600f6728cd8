package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aasta/aasta-backend/api/controllers"
	"github.com/aasta/aasta-backend/api/middleware"
	"github.com/aasta/aasta-backend/internal/auth"
	"github.com/aasta/aasta-backend/pkg/config"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/metrics"
	"github.com/aasta/aasta-backend/pkg/redis"
)

// Deps are the collaborators the router wires into handlers. Nil services
// answer with a configuration or internal error instead of panicking.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    controllers.Pinger
	Redis controllers.Pinger
	// Limiter is nil when Redis is not configured, which disables rate limits.
	Limiter redis.RateLimiter

	Orders  controllers.OrderCreator
	Verify  controllers.PaymentVerifier
	Summary controllers.SummaryReader
	Ledger  controllers.InvestmentLister
	Auth    auth.Service

	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.FrontendURL),
	)
	r.NotFound(controllers.NotFound())
	r.MethodNotAllowed(controllers.MethodNotAllowed())

	paymentsPolicy := middleware.RateLimitPolicy{
		Name:   "payments",
		Window: cfg.RateLimit.Window,
		Limit:  cfg.RateLimit.PaymentsLimit,
	}
	loginPolicy := middleware.RateLimitPolicy{
		Name:   "login",
		Window: cfg.RateLimit.Window,
		Limit:  cfg.RateLimit.LoginLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", controllers.APIHealth(cfg))

		r.Route("/payments", func(r chi.Router) {
			limited := r.With(middleware.RateLimit(paymentsPolicy, d.Limiter, logg))
			limited.Post("/create-order", controllers.CreateOrder(d.Orders, logg))
			limited.Post("/verify", controllers.VerifyPayment(d.Verify, logg))

			r.Get("/summary", controllers.PaymentSummary(d.Summary, logg))
			r.Get("/data", controllers.PaymentSummary(d.Summary, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(loginPolicy, d.Limiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))
			r.Get("/investments", controllers.AdminListInvestments(d.Ledger, logg))
		})
	})

	return r
}
