// Package main is the entry point for the Frontier portfolio analysis server.
// It wires the price history cache, statistics builder, Monte Carlo frontier
// sampler and HTTP API around a pair of SQLite databases.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/assets"
	"github.com/aristath/frontier/internal/modules/calculations"
	"github.com/aristath/frontier/internal/modules/frontier"
	"github.com/aristath/frontier/internal/modules/history"
	"github.com/aristath/frontier/internal/modules/session"
	"github.com/aristath/frontier/internal/modules/statistics"
	"github.com/aristath/frontier/internal/scheduler"
	"github.com/aristath/frontier/internal/server"
	"github.com/aristath/frontier/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Frontier")

	// Price history cache
	priceDB, err := database.New(database.Config{
		Path:    cfg.PriceCachePath(),
		Profile: database.ProfileCache,
		Name:    "prices",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open price database")
	}
	defer priceDB.Close()

	// Derived statistics cache
	calcDB, err := database.New(database.Config{
		Path:    cfg.CalcCachePath(),
		Profile: database.ProfileCache,
		Name:    "calculations",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open calculations database")
	}
	defer calcDB.Close()

	calcCache := calculations.NewCache(calcDB.Conn(), time.Duration(cfg.CacheMaxAgeHours)*time.Hour, log)
	if err := calcCache.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize calculations cache")
	}

	priceStore := history.NewStore(priceDB.Conn(), log)
	if err := priceStore.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price store")
	}

	validator := history.NewValidator(time.Duration(cfg.CacheMaxAgeHours)*time.Hour, log)
	yahooClient := yahoo.NewClient(log)
	provider := history.NewProvider(yahooClient, priceStore, validator, cfg.LookbackYears, log)

	builder := statistics.NewBuilder(log)
	stats := statistics.NewService(builder, calcCache, log)
	sampler := frontier.NewSampler(time.Now().UnixNano(), cfg.SampleWorkers, log)
	metrics := frontier.NewMetricsCalculator(builder, log)
	analyzer := assets.NewAnalyzer(log)

	sessionStore := session.NewStore(log)
	sessions := session.NewService(provider, stats, sampler, sessionStore, session.Defaults{
		NumPortfolios: cfg.NumPortfolios,
		RiskFreeRate:  cfg.RiskFreeRate,
	}, log)

	// Nightly cache refresh keeps the first analysis of the day fast.
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshPricesJob(provider, session.SampleSymbols, log)
	if err := sched.AddJob("0 0 6 * * *", refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		PriceDB:  priceDB,
		CacheDB:  calcDB,
		Sessions: sessions,
		Metrics:  metrics,
		Analyzer: analyzer,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
