package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/solecart/api/controllers"
	cartcontrollers "github.com/angelmondragon/solecart/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/solecart/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/solecart/api/controllers/orders"
	"github.com/angelmondragon/solecart/api/middleware"
	"github.com/angelmondragon/solecart/internal/session"
	"github.com/angelmondragon/solecart/pkg/config"
	"github.com/angelmondragon/solecart/pkg/logger"
	pkgredis "github.com/angelmondragon/solecart/pkg/redis"
)

// Dependencies are the services the router hands to controllers.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Breakers    []controllers.Breaker
	Sessions    *session.Registry
	Cart        cartcontrollers.Handlers
	Checkout    checkoutcontrollers.Service
	Orders      ordercontrollers.Service
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis, deps.Breakers...))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Credentials(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Refresh(deps.Cart, deps.Sessions, logg))
			r.Post("/clear", cartcontrollers.Clear(deps.Cart, deps.Sessions, logg))
			r.Route("/lines/{lineId}", func(r chi.Router) {
				r.Delete("/", cartcontrollers.Remove(deps.Cart, deps.Sessions, logg))
				r.Post("/increase", cartcontrollers.Increase(deps.Cart, deps.Sessions, logg))
				r.Post("/decrease", cartcontrollers.Decrease(deps.Cart, deps.Sessions, logg))
				r.Get("/product", cartcontrollers.ProductDetails(deps.Cart, deps.Sessions, logg))
				r.Put("/variant", cartcontrollers.UpdateVariant(deps.Cart, deps.Sessions, logg))
			})
			r.Put("/selection/{lineId}", checkoutcontrollers.Select(deps.Checkout, deps.Sessions, logg))
			r.Delete("/selection", checkoutcontrollers.ClearSelection(deps.Checkout, deps.Sessions, logg))
		})

		r.Route("/checkout/stage", func(r chi.Router) {
			r.Post("/", checkoutcontrollers.Stage(deps.Checkout, deps.Sessions, logg))
			r.Delete("/", checkoutcontrollers.Discard(deps.Checkout, deps.Sessions, logg))
		})

		r.Post("/orders/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
	})

	return r
}
