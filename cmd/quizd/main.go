package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/eventlog"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/randomplay"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/view"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer dbh.Close()

	store := quiz.NewSQLStore(dbh, cfg.DBDriver)
	events := eventlog.NewRepo(dbh)

	renderer, err := view.New()
	if err != nil {
		log.Fatal("templates", "error", err)
	}

	// --- Sessions ---
	var sessions session.Store
	switch cfg.SessionDriver {
	case "redis":
		rdb, err := session.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("redis connect failed", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb)
	default:
		ms := session.NewMemoryStore()
		go sweep(ctx, ms, time.Minute, log)
		sessions = ms
	}
	manager := session.NewManager(sessions, session.Options{
		CookieName: cfg.SessionCookie,
		Secret:     cfg.SessionSecret,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.Mode == config.ModeOnline,
	}, log)

	// --- Auth ---
	// Without local auth every visitor may edit; with it, visitors are guests
	// until they log in.
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	defaultRole := rbac.RoleEditor
	var login *auth.Credentials
	if cfg.EnableLocalAuth {
		defaultRole = rbac.RoleGuest
		login = &auth.Credentials{User: cfg.AdminUser, PassHash: cfg.AdminPassHash}
	}

	router := api.NewRouter(api.RouterDeps{
		Quizzes: &api.Quizzes{
			Store:    store,
			Random:   randomplay.NewService(store, randomplay.WithEvents(events), randomplay.WithLogger(log)),
			View:     renderer,
			Events:   events,
			Log:      log,
			PageSize: cfg.PageSize,
		},
		Sessions:    manager,
		Auth:        authSvc,
		DefaultRole: defaultRole,
		Login:       login,
		EventLog:    events,
		DB:          dbh,
		CORSOrigins: cfg.CORSOrigins(),
		Log:         log,
	})

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}()

	log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "sessions", cfg.SessionDriver, "local_auth", cfg.EnableLocalAuth)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func sweep(ctx context.Context, ms *session.MemoryStore, every time.Duration, log *logger.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := ms.Sweep(); n > 0 {
				log.Debug("expired sessions swept", "count", n)
			}
		}
	}
}
