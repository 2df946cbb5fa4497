package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/auth"
	"github.com/thandzin/ordering/internal/domain"
	"github.com/thandzin/ordering/internal/health"
	"github.com/thandzin/ordering/internal/menu"
	"github.com/thandzin/ordering/internal/messaging/kafka"
	"github.com/thandzin/ordering/internal/service/cartsync"
	"github.com/thandzin/ordering/internal/service/order"
	"github.com/thandzin/ordering/internal/service/whatsapp"
	"github.com/thandzin/ordering/internal/storage/objectstore"
	httpapi "github.com/thandzin/ordering/internal/transport/http"
	"github.com/thandzin/ordering/internal/version"
)

// Run собирает зависимости и запускает сервис заказов до отмены
// контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if cfg.MenuURL == "" {
		return fmt.Errorf("ORDERING_MENU_URL is required")
	}

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.close(logger)

	menuStore := menu.NewStore(cfg.MenuURL, logger)
	if err := menuStore.Load(ctx); err != nil {
		// Каталог подтянется лениво при первом запросе.
		logger.WithError(err).Warn("initial menu load failed")
	}

	sessions := auth.NewManager(cfg.AuthSecret)

	// Kafka опционален: без брокеров корзина живёт только в хранилище.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	var cartSvc *cartsync.Service
	var eventPublisher *kafka.EventPublisher
	if kafkaProducer != nil {
		eventPublisher = kafka.NewEventPublisher(kafkaProducer)
		cartSvc = cartsync.NewWithPublisher(storage.carts, eventPublisher, logger)
	} else {
		cartSvc = cartsync.New(storage.carts, logger)
	}

	feed := startSnapshotFeed(ctx, cfg.KafkaBrokers, cfg.KafkaGroupID, cartSvc, logger)
	if feed != nil {
		defer func() {
			if err := feed.Stop(); err != nil {
				logger.WithError(err).Warn("failed to stop snapshot feed")
			}
		}()
	}

	var composer *whatsapp.Composer
	if cfg.WhatsAppPhone != "" {
		composer = whatsapp.NewComposer(cfg.WhatsAppPhone, cfg.RestaurantName, cfg.WhatsAppImageEndpoint, logger)
	}

	sink, err := orderSink(cfg, composer, storage, logger)
	if err != nil {
		return err
	}

	var submitter *order.Submitter
	if eventPublisher != nil {
		submitter = order.NewSubmitterWithPublisher(cartSvc, sink, eventPublisher, logger)
	} else {
		submitter = order.NewSubmitter(cartSvc, sink, logger)
	}

	var archive *objectstore.Archive
	if cfg.Archive.Bucket != "" {
		archive, err = objectstore.NewArchive(ctx, cfg.Archive, logger)
		if err != nil {
			logger.WithError(err).Warn("summary archive unavailable, continuing without it")
			archive = nil
		}
	}

	server := httpapi.NewServer(httpapi.Options{
		Menu:      menuStore,
		Cart:      cartSvc,
		Submitter: submitter,
		Orders:    storage.orders,
		Sessions:  sessions,
		Composer:  composer,
		Archive:   archive,
		Logger:    logger.WithField("layer", "http"),
	})

	healthHandler := health.NewHandler(version.GetVersion())
	if storage.store != nil {
		healthHandler.RegisterChecker("postgres", health.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return storage.store.Ping(checkCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.APIAddr, Handler: server.Router(cfg.CORSOrigins)}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.APIAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем API сервер")
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

// orderSink выбирает канал передачи заказа по конфигурации.
func orderSink(cfg Config, composer *whatsapp.Composer, storage *storageSet, logger *log.Entry) (domain.OrderSink, error) {
	switch cfg.OrderChannel {
	case OrderChannelWhatsApp, "":
		if composer == nil {
			return nil, fmt.Errorf("order channel whatsapp requires ORDERING_WHATSAPP_PHONE")
		}
		return whatsapp.NewLinkSink(composer, logger), nil
	case OrderChannelCollection:
		return order.NewCollectionSink(storage.orders, logger), nil
	default:
		return nil, fmt.Errorf("unsupported order channel: %s", cfg.OrderChannel)
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(version.String()))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
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
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
