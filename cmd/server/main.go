// Command server wires the document tracking service: stores, identity
// resolution, lifecycle transitions, notification fan-out and analytics
// behind one HTTP router. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analyticshandler "doctrack/internal/analytics/handler"
	analyticsservice "doctrack/internal/analytics/service"
	dirhandler "doctrack/internal/directory/handler"
	dirstore "doctrack/internal/directory/store"
	dochandler "doctrack/internal/document/handler"
	docmetrics "doctrack/internal/document/metrics"
	docservice "doctrack/internal/document/service"
	docstore "doctrack/internal/document/store"
	"doctrack/internal/identity"
	"doctrack/internal/notification/fanout"
	notifhandler "doctrack/internal/notification/handler"
	notifmetrics "doctrack/internal/notification/metrics"
	notifservice "doctrack/internal/notification/service"
	notifstore "doctrack/internal/notification/store"
	"doctrack/internal/notification/stream"
	"doctrack/internal/platform/config"
	"doctrack/internal/platform/httpserver"
	"doctrack/internal/platform/logger"
	"doctrack/internal/platform/redisclient"
)

type stores struct {
	accounts      dirstore.AccountStore
	employees     dirstore.EmployeeStore
	offices       dirstore.OfficeStore
	documents     docstore.DocumentStore
	notifications notifstore.NotificationStore
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	st, db, err := buildStores(cfg, log)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redis, err := redisclient.New(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var unread *notifstore.UnreadCache
	if redis != nil {
		unread = notifstore.NewUnreadCache(redis.Client, log)
		defer redis.Close()
	}

	publisher, err := stream.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		log.Error("failed to connect kafka producer", "error", err)
		os.Exit(1)
	}

	resolver := identity.New(st.accounts, st.employees, st.offices, log)

	fanoutOpts := []fanout.Option{fanout.WithMetrics(notifmetrics.New())}
	if unread != nil {
		fanoutOpts = append(fanoutOpts, fanout.WithUnreadCache(unread))
	}
	if publisher != nil {
		fanoutOpts = append(fanoutOpts, fanout.WithPublisher(publisher))
	}
	notifier := fanout.New(resolver, st.accounts, st.notifications, cfg.AdminRole, log, fanoutOpts...)

	documents := docservice.New(st.documents, log,
		docservice.WithNotifier(notifier),
		docservice.WithMetrics(docmetrics.New()),
	)
	notifications := notifservice.New(st.notifications, unread, log)
	analytics := analyticsservice.New(st.documents, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	dochandler.New(documents, log).Register(router)
	notifhandler.New(notifications, log).Register(router)
	analyticshandler.New(analytics, log).Register(router)
	dirhandler.New(st.accounts, st.employees, st.offices, log).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db, redis))

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting doctrack", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if publisher != nil {
		if err := publisher.Close(ctx); err != nil {
			log.Warn("failed to flush lifecycle events", "error", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("doctrack stopped")
}

// buildStores selects the persistence backend: postgres when configured,
// in-memory otherwise.
func buildStores(cfg config.Server, log *slog.Logger) (stores, *sql.DB, error) {
	if cfg.PostgresURL == "" {
		log.Info("postgres not configured, using in-memory stores")
		return stores{
			accounts:      dirstore.NewMemoryAccounts(),
			employees:     dirstore.NewMemoryEmployees(),
			offices:       dirstore.NewMemoryOffices(),
			documents:     docstore.NewMemory(),
			notifications: notifstore.NewMemory(),
		}, nil, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return stores{}, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return stores{}, nil, err
	}
	return stores{
		accounts:      dirstore.NewPostgresAccounts(db),
		employees:     dirstore.NewPostgresEmployees(db),
		offices:       dirstore.NewPostgresOffices(db),
		documents:     docstore.NewPostgres(db),
		notifications: notifstore.NewPostgres(db),
	}, db, nil
}

func healthz(db *sql.DB, redis *redisclient.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redis != nil {
			if err := redis.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
