package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"billed/internal/config"
	"billed/internal/containers"
	"billed/internal/handlers"
	"billed/internal/log"
	"billed/internal/router"
	"billed/internal/session"
	"billed/internal/storage"
	"billed/internal/store"
	"billed/internal/store/restclient"
)

const sweepInterval = 10 * time.Minute

type app struct {
	cfg      *config.AppConfig
	log      zerolog.Logger
	db       *storage.DB
	redis    *redis.Client
	receipts *storage.DirStore
	clients  *handlers.Clients
	handlers *handlers.Handlers
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.close()

	receiptsDir := ""
	if a.receipts != nil {
		receiptsDir = a.receipts.Root()
	}
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      setupRouter(a.handlers, cfg.HTTP.StaticDir, receiptsDir, cfg.Receipts.PublicPath),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go a.sweep(ctx)

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("backend", cfg.Backend.Mode).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server exited cleanly")
}

// newApp opens the backends selected by cfg and wires the per-client
// routers on top of them.
func newApp(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: logger}

	db, err := storage.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db

	remote, err := a.remoteStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	newStorage, err := a.sessionStorage(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.clients = handlers.NewClients(cfg.Session.ClientTTL, func(clientID string) *router.Router {
		return router.New(containers.Options{
			Store:        remote,
			Session:      session.NewStore(newStorage(clientID), logger),
			Log:          logger.With().Str("client", clientID).Logger(),
			DefaultPct:   &cfg.Bills.DefaultPct,
			PreviewWidth: cfg.Bills.PreviewWidth,
		})
	})
	a.handlers = handlers.NewHandlers(a.clients, logger, handlers.Options{
		SecureCookie: cfg.HTTP.SecureCookie,
		CookieTTL:    cfg.Session.ClientTTL,
	})
	return a, nil
}

func (a *app) remoteStore(ctx context.Context) (store.RemoteStore, error) {
	if a.cfg.Backend.Mode == "rest" {
		return restclient.New(restclient.Options{
			BaseURL:       a.cfg.Backend.BaseURL,
			Token:         a.cfg.Backend.Token,
			Timeout:       a.cfg.Backend.Timeout,
			RetryAttempts: a.cfg.Backend.RetryAttempts,
		}, a.log.With().Str("component", "restclient").Logger()), nil
	}

	var receipts store.Receipts
	switch a.cfg.Receipts.Backend {
	case "minio":
		objects, err := storage.NewObjectStore(a.cfg.Receipts)
		if err != nil {
			return nil, fmt.Errorf("init receipts: %w", err)
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			a.log.Warn().Err(err).Msg("ensure receipts bucket failed")
		}
		receipts = objects
	default:
		dir, err := storage.NewDirStore(a.cfg.Receipts.Dir, a.cfg.Receipts.PublicPath)
		if err != nil {
			return nil, fmt.Errorf("init receipts: %w", err)
		}
		a.receipts = dir
		receipts = dir
	}
	return store.NewLocal(a.db, receipts), nil
}

// sessionStorage returns the constructor of the session storage of one
// client.
func (a *app) sessionStorage(ctx context.Context) (func(clientID string) session.Storage, error) {
	switch a.cfg.Session.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.redis = client
		return func(id string) session.Storage {
			return session.NewRedisStorage(client, "billed:client:"+id, a.cfg.Session.ClientTTL)
		}, nil
	case "memory":
		return func(string) session.Storage { return session.NewMemoryStorage() }, nil
	default:
		return a.db.LocalStorage, nil
	}
}

// sweep drops idle clients and their stored sessions until ctx is done.
func (a *app) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := a.clients.Sweep()
			var pruned int64
			if a.cfg.Session.Backend == "sqlite" && a.cfg.Session.ClientTTL > 0 {
				n, err := a.db.PruneLocalStorage(ctx, time.Now().Add(-a.cfg.Session.ClientTTL))
				if err != nil {
					a.log.Error().Err(err).Msg("prune sessions failed")
				}
				pruned = n
			}
			if dropped > 0 || pruned > 0 {
				a.log.Info().Int("clients", dropped).Int64("sessions", pruned).Int("live", a.clients.Len()).Msg("idle clients swept")
			}
		}
	}
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error().Err(err).Msg("redis close error")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error().Err(err).Msg("database close error")
		}
	}
}

// setupRouter builds the HTTP handler: static assets, locally stored
// receipts when receiptsDir is set, and the application routes.
func setupRouter(h *handlers.Handlers, staticDir, receiptsDir, receiptsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	if receiptsDir != "" {
		prefix := "/" + strings.Trim(receiptsPath, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(receiptsDir))))
	}

	h.Register(mux)
	return h.Middleware(mux)
}
