package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"PartsHub/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = 60 * time.Second

	readyTimeout = 1 * time.Second
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.handleReady)

	setupAPIRoutes(r, s)
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func setupAPIRoutes(r *chi.Mux, s *Server) {
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)

	r.Route("/api", func(rr chi.Router) {
		rr.With(registerLimiter.Middleware).Post("/register", s.handleRegister)
		rr.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
		rr.Post("/logout", s.handleLogout)

		rr.Get("/products", s.listProducts)
		rr.Get("/categories", s.listCategories)

		rr.Group(func(pr chi.Router) {
			pr.Use(s.RequireSession)

			pr.Get("/user", s.handleCurrentUser)

			pr.Get("/cart", s.getCart)
			pr.Post("/cart", s.addToCart)
			pr.Get("/cart/subtotal", s.cartSubtotal)
			pr.Delete("/cart/{id}", s.removeCartItem)

			pr.Get("/favorites", s.listFavorites)
			pr.Post("/favorites/toggle", s.toggleFavorite)
		})
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed: store", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
		return
	}
	if err := s.Sessions.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed: sessions", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "sessions not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}
