package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/chairgo/internal/auth"
	"github.com/geocoder89/chairgo/internal/config"
	"github.com/geocoder89/chairgo/internal/db"
	httpx "github.com/geocoder89/chairgo/internal/http"
	"github.com/geocoder89/chairgo/internal/observability"
	"github.com/geocoder89/chairgo/internal/redisclient"
	"github.com/geocoder89/chairgo/internal/repo/memory"
	"github.com/geocoder89/chairgo/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		Endpoint:    cfg.OTelEndpoint,
		Env:         cfg.Env,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.JWTTTL()),
		Prom:     prom,
		Registry: reg,
	}

	if cfg.UseMemoryStore() {
		log.Warn("using in-memory store, data is lost on restart")
		deps.Users = memory.NewUsersRepo()
		deps.Products = memory.NewProductsRepo()
		deps.Orders = memory.NewOrdersRepo()
	} else {
		pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("db migrate failed", "err", err)
			os.Exit(1)
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Products = postgres.NewProductsRepo(pool, prom)
		deps.Orders = postgres.NewOrdersRepo(pool, prom)
		deps.Ping = pool.Ping
	}

	created, err := db.EnsureAdminUser(ctx, deps.Users, db.AdminSeed{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("seed admin created", "username", cfg.AdminUsername)
	}

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, login throttling falls back to memory", "err", err)
		} else {
			deps.LimitStore = rc
		}
	}

	// set up routers with the log
	router := httpx.NewRouter(log, deps, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}
