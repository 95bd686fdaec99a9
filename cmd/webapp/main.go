package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"bookstore_webapp/config"
	"bookstore_webapp/internal/clients"
	"bookstore_webapp/internal/delivery"
	"bookstore_webapp/internal/domain"
	"bookstore_webapp/internal/health"
	"bookstore_webapp/internal/middleware"
	"bookstore_webapp/internal/proxy"
	"bookstore_webapp/internal/repository"
	"bookstore_webapp/internal/usecase"
	"bookstore_webapp/pkg/db"
	"bookstore_webapp/pkg/shutdown"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting Bookstore Webapp...")

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	config.SetLogLevel(logger, cfg.LogLevel)
	logger.Infof("Log level set to %s", logger.GetLevel())

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorf("Webapp stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Webapp stopped.")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	jsonClient, err := clients.NewJSONClient("", cfg.CatalogTimeout, logger)
	if err != nil {
		return err
	}
	catalogClient := clients.NewCatalogClient(cfg.CatalogServiceURL, jsonClient, logger)
	logger.Infof("Catalog Service Client initialized for target: %s", cfg.CatalogServiceURL)

	cartRepo, orderRepo, database, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}
	logger.Info("Repositories initialized.")

	cartUseCase := usecase.NewCartUseCase(cartRepo, catalogClient, logger)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, cartRepo, catalogClient, logger)
	logger.Info("Use cases initialized.")

	catalogProxy, err := proxy.NewReverseProxy(cfg.CatalogServiceURL, "", logger)
	if err != nil {
		return err
	}

	pages := delivery.NewPages(delivery.SiteMeta{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		Creator:     cfg.Site.Creator,
	})
	productHandler := delivery.NewProductHandler(catalogClient, pages, proxy.ProxyHandler(catalogProxy, logger), cfg.CatalogTimeout, logger)
	cartHandler := delivery.NewCartHandler(cartUseCase, pages, logger)
	orderHandler := delivery.NewOrderHandler(orderUseCase, pages, logger)
	logger.Info("Handlers initialized.")

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))

	healthService := health.NewService(catalogClient, logger)
	go healthService.Watch(ctx, cfg.HealthInterval)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"catalog": healthService.Status(c.Request.Context(), health.CatalogService),
		})
	})
	productHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router)
	logger.Info("Routes registered.")

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)

	var grpcServer *grpc.Server
	if cfg.GrpcPort != "" {
		lis, err := net.Listen("tcp", cfg.GrpcPort)
		if err != nil {
			return err
		}
		grpcServer = grpc.NewServer()
		healthService.Register(grpcServer)
		go func() {
			logger.Infof("Starting gRPC health server on port %s", cfg.GrpcPort)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining connections...")
	}

	healthService.Shutdown()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// newRepositories picks Postgres when DATABASE_URL is set and the in-memory
// stores otherwise. The returned *sql.DB is nil for the in-memory stores.
func newRepositories(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.CartRepository, domain.OrderRepository, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is not set, carts and orders will not survive a restart.")
		return repository.NewMemoryCartRepository(logger), repository.NewMemoryOrderRepository(logger), nil, nil
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("Database connection established.")

	if err := repository.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	logger.Info("Database schema is up to date.")
	return repository.NewPostgresCartRepository(database, logger), repository.NewPostgresOrderRepository(database, logger), database, nil
}
