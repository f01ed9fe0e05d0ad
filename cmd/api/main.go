package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/config"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/router"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/session"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

func main() {
	// best-effort: without a .env file the real environment is used
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting oneservis", "env", cfg.Env, "addr", cfg.HTTP.Addr)

	db, err := database.Connect(cfg.Database())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		sugar.Fatalf("schema: %v", err)
	}
	created, err := personnel.NewService(db, nil, nil, sugar).EnsureInitialAdmin(ctx, personnel.InitialAdmin{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
	})
	if err != nil {
		sugar.Fatalf("initial admin: %v", err)
	}
	if created {
		sugar.Infow("provisioned initial admin", "email", cfg.Bootstrap.AdminEmail)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, db.DriverName()),
	)
	m := metrics.New(reg)

	handler := router.New(router.Deps{
		Logger:      sugar,
		DB:          db,
		Codec:       session.NewCodec(session.Options{Secret: cfg.Session.Secret, Issuer: cfg.Session.Issuer, SecureCookie: cfg.Production()}),
		IDs:         utilities.NewIDSource(cfg.Snowflake.Node),
		Metrics:     m,
		CORSOrigins: cfg.AllowedOrigins(),
		Env:         cfg.Env,
		Debug:       !cfg.Production(),
	})
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	// metrics stay off the public listener
	var metricsSrv *http.Server
	if cfg.HTTP.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{Addr: cfg.HTTP.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				sugar.Errorw("metrics server failed", "err", err)
			}
		}()
		sugar.Infow("metrics listening", "addr", cfg.HTTP.MetricsAddr)
	}

	sugar.Info("service is running; press Ctrl+C to stop")
	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(doneCtx); err != nil {
			sugar.Warnf("metrics server shutdown failed: %v", err)
		}
	}
	if err := db.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
