package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

type RouterDeps struct {
	Quizzes     *Quizzes
	Sessions    *session.Manager
	Auth        *authmw.AuthService
	DefaultRole string
	// Login is mounted only when set.
	Login       *authmw.Credentials
	// EventLog is served at /events when set.
	EventLog    EventLister
	DB          *sql.DB
	CORSOrigins []string
	Log         *logger.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(MethodOverride)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		ExposedHeaders:   []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	if d.Login != nil {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, *d.Login))
		r.Post("/auth/logout", authmw.LogoutHandler())
	}

	r.Group(func(pr chi.Router) {
		pr.Use(d.Sessions.Middleware, authmw.Identify(d.Auth, d.DefaultRole))
		pr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/quizzes", http.StatusFound)
		})
		pr.Route("/quizzes", func(qr chi.Router) {
			MountQuizzes(qr, d.Quizzes)
		})
		if d.EventLog != nil {
			pr.With(rbac.Require("events:list")).
				Get("/events", ListEventsHandler(d.EventLog, d.Quizzes.View, d.Log))
		}
	})
	return r
}
