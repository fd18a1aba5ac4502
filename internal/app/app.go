package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	natsclient "github.com/nats-io/nats.go"
	redisclient "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	mongoadapter "github.com/agromarket/auction-service/internal/adapter/mongo"
	natsadapter "github.com/agromarket/auction-service/internal/adapter/nats"
	redisadapter "github.com/agromarket/auction-service/internal/adapter/redis"
	"github.com/agromarket/auction-service/internal/app/config"
	"github.com/agromarket/auction-service/internal/platform/clock"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/platform/metrics"
	"github.com/agromarket/auction-service/internal/port/httpapi"
	"github.com/agromarket/auction-service/internal/port/ws"
	"github.com/agromarket/auction-service/internal/service"
)

// App owns every long-lived resource of the auction service and wires them
// together.
type App struct {
	cfg *config.Config
	log logger.Logger

	mongoClient *mongodriver.Client
	redisClient *redisclient.Client
	natsConn    *natsclient.Conn

	hub        *ws.Hub
	httpServer *httpapi.Server
	metrics    *metrics.Manager
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.NewZapLogger(logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Infof("Starting auction service in %s environment", cfg.Env)

	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to MongoDB")

	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	log.Info("Connected to Redis")

	natsConn, err := natsadapter.NewConnection(cfg.NATS)
	if err != nil {
		_ = redisClient.Close()
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	log.Info("Connected to NATS")

	auctionRepo := mongoadapter.NewAuctionRepository(mongoClient, cfg.MongoDB)
	bidRepo := mongoadapter.NewBidRepository(mongoClient, cfg.MongoDB)
	modeRepo := mongoadapter.NewBidModeRepository(mongoClient, cfg.MongoDB)
	users := mongoadapter.NewUserDirectory(mongoClient, cfg.MongoDB)
	tx := mongoadapter.NewTxRunner(mongoClient)
	viewCache := redisadapter.NewAuctionViewCache(redisClient)

	publisher, err := natsadapter.NewPublisher(natsConn)
	if err != nil {
		_ = redisClient.Close()
		_ = mongoClient.Disconnect(ctx)
		natsConn.Close()
		return nil, err
	}

	metricsManager := metrics.NewManager("auction_service")
	clk := clock.System()

	bidService := service.NewBidService(
		auctionRepo, bidRepo, modeRepo, tx, viewCache, publisher, clk, metricsManager, log,
		service.BidServiceConfig{
			MinIncrement: cfg.Auction.MinIncrement,
			MaxRetries:   cfg.Auction.MaxBidRetries,
		},
	)
	modeService := service.NewBidModeService(modeRepo, auctionRepo, log)
	queryService := service.NewAuctionQueryService(
		auctionRepo, bidRepo, users, viewCache, clk, log,
		service.AuctionQueryConfig{ViewCacheTTL: cfg.Auction.ViewCacheTTL},
	)
	finalizerService := service.NewFinalizerService(
		auctionRepo, bidRepo, tx, viewCache, publisher, clk, metricsManager, log,
	)

	hub := ws.NewHub(log)
	handler := httpapi.NewHandler(bidService, modeService, queryService, finalizerService, hub, metricsManager, log)
	httpServer := httpapi.NewServer(cfg.HTTPServer, handler, log)

	return &App{
		cfg:         cfg,
		log:         log,
		mongoClient: mongoClient,
		redisClient: redisClient,
		natsConn:    natsConn,
		hub:         hub,
		httpServer:  httpServer,
		metrics:     metricsManager,
	}, nil
}

// Run starts the hub, live-feed subscription, metrics endpoint and HTTP
// server, then blocks until a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.hub.Run(ctx)

	sub, err := a.hub.SubscribeBidEvents(a.natsConn)
	if err != nil {
		return fmt.Errorf("failed to subscribe to bid events: %w", err)
	}

	go func() {
		if err := metrics.StartServer(a.cfg.Metrics.Port, a.log, a.metrics.Registry); err != nil && err != http.ErrServerClosed {
			a.log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.httpServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case sig := <-quit:
		a.log.Infof("Received signal %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful)
	defer shutdownCancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Errorf("HTTP server shutdown failed: %v", err)
	}

	cancel()

	if err := sub.Drain(); err != nil {
		a.log.Warnf("Failed to drain NATS subscription: %v", err)
	}
	if err := a.natsConn.Drain(); err != nil {
		a.log.Warnf("Failed to drain NATS connection: %v", err)
	}
	a.natsConn.Close()

	if err := a.redisClient.Close(); err != nil {
		a.log.Warnf("Failed to close Redis client: %v", err)
	}
	if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
		a.log.Warnf("Failed to disconnect MongoDB client: %v", err)
	}

	a.log.Info("Auction service stopped")
	return nil
}
