package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"paygate/internal/config"
	"paygate/internal/database"
	"paygate/internal/events"
	"paygate/internal/handler"
	"paygate/internal/service"
	"paygate/internal/store"
	"paygate/internal/worker"
)

type stores struct {
	merchants store.MerchantStore
	orders    store.OrderStore
	payments  store.PaymentStore
	pinger    store.Pinger
	close     func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.DatabaseURI == "" {
		slog.Warn("DATABASE_URI not set, using in-memory store")
		mem := store.NewMemory()
		return &stores{
			merchants: mem.Merchants(),
			orders:    mem.Orders(),
			payments:  mem.Payments(),
			pinger:    mem,
			close:     func() {},
		}, nil
	}

	db, err := database.NewDB(ctx, cfg.DatabaseURI)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(ctx, db); err != nil {
		database.CloseDB(db)
		return nil, err
	}

	merchants := store.NewPostgresMerchants(db)
	return &stores{
		merchants: merchants,
		orders:    store.NewPostgresOrders(db),
		payments:  store.NewPostgresPayments(db),
		pinger:    merchants,
		close:     func() { database.CloseDB(db) },
	}, nil
}

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStores(ctx, cfg)
	cancel()
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer st.close()

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		slog.Info("publishing settlement events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	clock := clockwork.NewRealClock()

	// Services
	merchantSvc := service.NewMerchantService(st.merchants)
	if err := merchantSvc.SeedTestMerchant(context.Background()); err != nil {
		slog.Error("failed to seed test merchant", "error", err)
		os.Exit(1)
	}
	orderSvc := service.NewOrderService(st.orders, clock)

	// Worker
	settler := worker.NewSettler(st.payments, publisher, clock, cfg.Settlement())
	if err := settler.Start(context.Background()); err != nil {
		slog.Error("failed to start settlement worker", "error", err)
		os.Exit(1)
	}
	paymentSvc := service.NewPaymentService(st.orders, st.payments, settler, clock)

	if cfg.TestMode {
		slog.Info("test mode enabled", "delay", cfg.TestProcessingDelay, "success", cfg.TestPaymentSuccess)
	}

	srv := &http.Server{
		Addr: cfg.RunAddress,
		Handler: handler.NewRouter(handler.Deps{
			Merchants: merchantSvc,
			Orders:    orderSvc,
			Payments:  paymentSvc,
			DB:        st.pinger,
			Worker:    settler,
			JWTSecret: cfg.JWTSecret,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	slog.Info("shutting down...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if err := settler.Stop(ctxShut); err != nil {
		slog.Error("settlement worker shutdown failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		slog.Error("failed to close event publisher", "error", err)
	}

	slog.Info("server stopped")
}
