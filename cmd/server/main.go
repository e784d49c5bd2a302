package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/joeecarter/respondr-server"
	"github.com/joeecarter/respondr-server/auth"
	"github.com/joeecarter/respondr-server/config"
	"github.com/joeecarter/respondr-server/healthapi"
	"go.uber.org/zap"
)

var Version = "0.0.0"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Printf("Failed to load configuration: %s.\n", err.Error())
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %s.\n", err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	metricStore, err := server.LoadMetricStore(cfg.StoresFile, logger.Named("loader"))
	if errors.Is(err, server.ErrNoMetricStore) {
		printConfigurationExplanation()
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("failed to load metric store", zap.Error(err))
	}
	defer metricStore.Close()

	identity, err := auth.NewJWTIdentity(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	if err != nil {
		logger.Fatal("failed to configure authentication", zap.Error(err))
	}

	fetcher, err := healthapi.NewClient(cfg.HealthAPI)
	if err != nil {
		logger.Fatal("failed to configure health api client", zap.Error(err))
	}

	handler := server.NewRouter(server.RouterConfig{
		Store:       metricStore,
		Fetcher:     fetcher,
		Identity:    identity,
		Schedule:    server.ScheduleConfig{DaysBack: cfg.DaysBack},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,

		MaxBodyBytes: cfg.MaxBodyBytes(),
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting respondr-server",
		zap.String("version", Version),
		zap.String("addr", cfg.Addr),
		zap.String("store", metricStore.Name()),
		zap.Int("days_back", cfg.DaysBack))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printConfigurationExplanation() {
	fmt.Printf("You have no metric stores configured.\n\n")

	fmt.Printf("Configure the database by setting environment variables:\n")
	fmt.Println("- CLICKHOUSE_DSN and CLICKHOUSE_DATABASE (optionally CLICKHOUSE_CREATE_TABLES)")
	fmt.Println("- or SQLITE_PATH")
	fmt.Printf("\nor list them in the stores file (-stores, default stores.json).\n")
}
