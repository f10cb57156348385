package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Bookings *BookingHandler
	Cart     *CartHandler
	Admin    *AdminHandler
	Sessions SessionValidator
	// LoginLimiter throttles POST /sessions when set.
	LoginLimiter *RateLimiter
	Logger       *slog.Logger
}

// NewRouter wires the JSON API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	router.Get("/catalog", Catalog)

	if cfg.Bookings != nil {
		router.Get("/slots", cfg.Bookings.Slots)
	}

	if cfg.Auth != nil {
		router.Post("/register", cfg.Auth.Register)
		router.Group(func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.Use(cfg.LoginLimiter.Middleware)
			}
			r.Post("/sessions", cfg.Auth.CreateSession)
		})
		router.Post("/sessions/current/refresh", cfg.Auth.RefreshCurrentSession)
		router.Delete("/sessions/current", cfg.Auth.DeleteCurrentSession)
	}

	if cfg.Sessions == nil {
		return router
	}

	router.Group(func(r chi.Router) {
		r.Use(RequireSession(cfg.Sessions, logger))

		if cfg.Auth != nil {
			r.Get("/me", cfg.Auth.Me)
		}

		if cfg.Bookings != nil {
			r.Get("/selection", cfg.Bookings.GetSelection)
			r.Put("/selection", cfg.Bookings.PutSelection)
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", cfg.Bookings.List)
				r.Post("/", cfg.Bookings.Create)
				r.Get("/{id}", cfg.Bookings.Get)
				r.Post("/{id}/cancel", cfg.Bookings.Cancel)
			})
		}

		if cfg.Cart != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.Cart.Get)
				r.Delete("/", cfg.Cart.Clear)
				r.Post("/items", cfg.Cart.AddItem)
				r.Patch("/items/{id}", cfg.Cart.UpdateItem)
				r.Delete("/items/{id}", cfg.Cart.DeleteItem)
				r.Post("/checkout", cfg.Cart.Checkout)
			})
		}

		if cfg.Admin != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin(logger))
				r.Get("/bookings", cfg.Admin.ListBookings)
				r.Delete("/bookings", cfg.Admin.ClearBookings)
				r.Post("/bookings/{id}/cancel", cfg.Admin.CancelBooking)
				r.Get("/logins", cfg.Admin.ListLogins)
				r.Get("/report", cfg.Admin.Report)
			})
		}
	})

	return router
}
