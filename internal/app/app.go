package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/service/catalog"
	httpapi "github.com/vladislavdragonenkov/ecom/internal/service/http"
	"github.com/vladislavdragonenkov/ecom/internal/service/idempotency"
	"github.com/vladislavdragonenkov/ecom/internal/service/identity"
	"github.com/vladislavdragonenkov/ecom/internal/service/order"
	"github.com/vladislavdragonenkov/ecom/internal/version"
)

const (
	defaultProbeTimeout    = 2 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Run собирает сервис по конфигурации и блокируется до отмены контекста
// либо падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	tokens := identity.NewTokenService(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	identitySvc := identity.NewService(deps.Repos.Users, tokens, logger.WithField("component", "identity-service"))
	catalogSvc := catalog.NewService(deps.Repos.Products, logger.WithField("component", "catalog-service"))

	var orderSvc *order.Service
	if deps.KafkaProducer != nil {
		orderSvc = order.NewServiceWithKafka(deps.Tx, deps.Repos, deps.KafkaProducer, logger.WithField("component", "order-service"))
	} else {
		orderSvc = order.NewService(deps.Tx, deps.Repos, logger.WithField("component", "order-service"))
	}

	idempotencyMgr := idempotency.NewManager(deps.IdempotencyRepo, cfg.Idempotency.TTL, logger.WithField("component", "idempotency-manager"))

	cleanupWorker := idempotency.NewCleanupWorker(deps.IdempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.Idempotency.CleanupInterval),
		idempotency.WithBatchSize(cfg.Idempotency.CleanupBatchSize),
	)
	go cleanupWorker.Run(ctx)

	router := httpapi.NewRouter(httpapi.RouterOptions{
		Auth:     httpapi.NewAuthHandler(identitySvc, cfg.HTTP.RequestTimeout),
		Products: httpapi.NewProductHandler(catalogSvc, cfg.HTTP.RequestTimeout),
		Orders:   httpapi.NewOrderHandler(orderSvc, idempotencyMgr, cfg.HTTP.RequestTimeout),
		Tokens:   tokens,
		Logger:   logger.WithField("component", "http"),
	})

	healthHandler := health.NewHandler(version.String())
	deps.registerHealthChecks(healthHandler)

	metricsSrv := startMetricsServer(ctx, cfg.App.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.App.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus
// вместе с health-пробами.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
