package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/example/hostel-desk/internal/application"
)

// RouterConfig carries the handlers and cross-cutting pieces mounted by NewRouter.
// Nil handlers leave their route group unmounted.
type RouterConfig struct {
	Auth          *AuthHandler
	Students      *StudentHandler
	Workers       *WorkerHandler
	Rooms         *RoomHandler
	Complaints    *ComplaintHandler
	Emergencies   *EmergencyHandler
	Notifications *NotificationHandler
	Authenticator TokenAuthenticator
	Metrics       *Metrics
	CORSOrigins   []string
	Logger        *slog.Logger
	Middleware    []func(http.Handler) http.Handler
}

const (
	roleStudent = application.RoleStudent
	roleWorker  = application.RoleWorker
	roleAdmin   = application.RoleAdmin
	roleWarden  = application.RoleWarden
)

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	responder := newResponder(logger)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			responder.writeJSON(req.Context(), w, http.StatusOK, healthResponse{Status: "ok", Message: "Hostel backend running"})
		})

		if cfg.Auth != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login/student", cfg.Auth.LoginStudent)
				r.Post("/login/admin", cfg.Auth.LoginAdmin)
				r.Post("/login/worker", cfg.Auth.LoginWorker)
				r.Post("/register/student", cfg.Auth.RegisterStudent)
			})
		}

		if cfg.Authenticator == nil {
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.Authenticator, logger))
			allow := func(roles ...application.Role) func(http.Handler) http.Handler {
				return RequireRoles(logger, roles...)
			}

			if h := cfg.Students; h != nil {
				r.Route("/students", func(r chi.Router) {
					r.With(allow(roleAdmin, roleWarden)).Get("/", h.List)
					r.With(allow(roleAdmin, roleWarden)).Post("/", h.Create)
					r.With(allow(roleStudent, roleAdmin, roleWarden)).Get("/{id}", h.Get)
					r.With(allow(roleStudent, roleAdmin, roleWarden)).Patch("/{id}", h.Update)
				})
			}

			if h := cfg.Workers; h != nil {
				r.Route("/workers", func(r chi.Router) {
					r.With(allow(roleAdmin, roleWarden)).Get("/", h.List)
					r.With(allow(roleAdmin, roleWarden)).Post("/", h.Create)
					r.With(allow(roleWorker, roleAdmin, roleWarden)).Get("/{id}", h.Get)
					r.With(allow(roleAdmin, roleWarden)).Patch("/{id}", h.Update)
					r.With(allow(roleWorker, roleAdmin, roleWarden)).Get("/{id}/tasks", h.Tasks)
					r.With(allow(roleWorker, roleAdmin, roleWarden)).Post("/{id}/attendance", h.ClockEvent)
					r.With(allow(roleWorker, roleAdmin, roleWarden)).Get("/{id}/attendance", h.Attendance)
				})
			}

			if h := cfg.Rooms; h != nil {
				r.Route("/rooms", func(r chi.Router) {
					r.With(allow(roleStudent, roleAdmin, roleWarden)).Get("/", h.List)
					r.With(allow(roleAdmin)).Post("/", h.Create)
					r.With(allow(roleStudent, roleAdmin, roleWarden)).Get("/{roomNo}", h.Get)
					r.With(allow(roleAdmin, roleWarden)).Patch("/{roomNo}", h.Update)
					r.With(allow(roleAdmin)).Delete("/{roomNo}", h.Delete)
				})
			}

			if h := cfg.Complaints; h != nil {
				r.Route("/complaints", func(r chi.Router) {
					r.With(allow(roleStudent)).Post("/", h.Create)
					r.With(allow(roleAdmin, roleWarden)).Get("/", h.List)
					r.With(allow(roleStudent, roleAdmin, roleWarden)).Get("/student/{id}", h.ListForStudent)
					r.With(allow(roleStudent, roleWorker, roleAdmin, roleWarden)).Get("/{id}/history", h.History)
					r.With(allow(roleAdmin, roleWarden)).Patch("/{id}/assign", h.Assign)
					r.With(allow(roleWorker, roleAdmin, roleWarden)).Patch("/{id}/status", h.UpdateStatus)
					r.With(allow(roleAdmin, roleWarden)).Patch("/{id}/escalate", h.Escalate)
				})
			}

			if h := cfg.Emergencies; h != nil {
				r.Route("/emergencies", func(r chi.Router) {
					r.With(allow(roleStudent)).Post("/", h.Create)
					r.With(allow(roleAdmin, roleWarden)).Get("/", h.List)
					r.With(allow(roleStudent, roleAdmin, roleWarden)).Get("/student/{id}", h.ListForStudent)
					r.With(allow(roleAdmin, roleWarden)).Patch("/{id}/status", h.UpdateStatus)
				})
			}

			if h := cfg.Notifications; h != nil {
				r.Route("/notifications", func(r chi.Router) {
					r.With(allow(roleAdmin, roleWarden)).Post("/", h.Create)
					r.Get("/{id}", h.List)
					r.Get("/{id}/unread-count", h.UnreadCount)
					r.Patch("/{id}/read", h.MarkRead)
					r.Patch("/{id}/read-all", h.MarkAllRead)
				})
			}
		})
	})

	return r
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
