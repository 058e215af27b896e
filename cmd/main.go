package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/cristianortiz/biddingengine/internal/auction/application"
	"github.com/cristianortiz/biddingengine/internal/auction/domain"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/repository/memory"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/repository/postgres"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/rest"
	"github.com/cristianortiz/biddingengine/internal/auction/infra/settlement"
	auctionws "github.com/cristianortiz/biddingengine/internal/auction/infra/websocket"
	"github.com/cristianortiz/biddingengine/internal/shared/config"
	"github.com/cristianortiz/biddingengine/internal/shared/db"
	"github.com/cristianortiz/biddingengine/internal/shared/db/migrations"
	"github.com/cristianortiz/biddingengine/internal/shared/httpserver"
	"github.com/cristianortiz/biddingengine/internal/shared/logger"
	"github.com/cristianortiz/biddingengine/internal/shared/metrics"
	"github.com/cristianortiz/biddingengine/internal/shared/websocket"
	"go.uber.org/zap"
)

func main() {
	logger := logger.GetLogger()
	defer logger.Sync()

	logger.Info("Starting bidding engine...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store domain.AuctionStore
	switch cfg.Store {
	case config.StorePostgres:
		logger.Info("Running database migrations...")
		if err := migrations.RunMigrations(cfg.DB.DSN()); err != nil {
			logger.Fatal("Database migration failed", zap.Error(err))
		}
		pool, err := db.GetPostgresDBPool(ctx, cfg.DB)
		if err != nil {
			logger.Fatal("Database connection failed", zap.Error(err))
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	default:
		logger.Warn("Using in-memory auction store, state is lost on restart")
		store = memory.NewStore()
	}

	var settler domain.SettlementRequester = settlement.LogRequester{}
	if cfg.SettlementURL != "" {
		settler = settlement.NewClient(cfg.SettlementURL, cfg.SettlementTimeout)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	engine := application.NewEngine(store,
		application.WithSettlement(settler),
		application.WithNotifier(auctionws.NewNotifier(hub)),
		application.WithAdmin(cfg.AdminActorID),
		application.WithCallbackTimeout(cfg.CallbackTimeout),
	)
	go application.NewScheduler(engine, cfg.SchedulerInterval).Run(ctx)

	wsHandler := auctionws.NewAuctionWSHandler(engine, hub)
	go wsHandler.ListenForMessages(ctx)

	server := httpserver.NewServer()
	rest.NewAuctionHandler(engine, rest.NewBidderLimiter(cfg.BidRatePerSecond, cfg.BidRateBurst)).Register(server.App())
	wsHandler.Register(ctx, server.App())

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(cfg.HTTPAddr) }()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	engine.Close()
	logger.Info("Bidding engine stopped")
}
