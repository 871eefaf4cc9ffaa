package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/cartsvc/internal/health"
	"github.com/vladislavdragonenkov/cartsvc/internal/metrics"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/auth"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/httpapi"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/notify"
	"github.com/vladislavdragonenkov/cartsvc/internal/version"
)

// Run собирает зависимости и держит оба HTTP-сервера до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	guard := auth.NewGuard(deps.Resolver, deps.Carts, log.StandardLogger())

	var cartService *cart.Service
	if deps.Producer != nil {
		cartService = cart.NewServiceWithPublisher(deps.Carts, deps.Catalog, deps.Producer, log.StandardLogger())
	} else {
		cartService = cart.NewService(deps.Carts, deps.Catalog, log.StandardLogger())
	}

	dispatcherOpts := []notify.DispatcherOption{
		notify.WithAdminEmail(cfg.AdminEmail),
		notify.WithRecipientTimeout(cfg.DispatchTimeout),
		notify.WithDispatchMetrics(metrics.NewDispatchMetrics()),
	}
	if deps.Producer != nil {
		dispatcherOpts = append(dispatcherOpts, notify.WithEventPublisher(deps.Producer))
	}
	dispatcher := notify.NewDispatcher(deps.Sender, log.StandardLogger(), dispatcherOpts...)

	handler := httpapi.NewHandler(guard, cartService, dispatcher, deps.Users, log.StandardLogger())
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(handler)}

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}
	if deps.Redis != nil {
		client := deps.Redis
		healthHandler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		}))
	}

	opsSrv := startOpsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP-серверы")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(opsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(opsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startOpsServer запускает служебный HTTP-сервер: метрики и health-пробы.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
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
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
