package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xact-softwaresolution/e-cart/internal/config"
	"github.com/xact-softwaresolution/e-cart/internal/db"
	"github.com/xact-softwaresolution/e-cart/internal/events"
	"github.com/xact-softwaresolution/e-cart/internal/httpapi"
	"github.com/xact-softwaresolution/e-cart/internal/inventory"
	"github.com/xact-softwaresolution/e-cart/internal/metrics"
	"github.com/xact-softwaresolution/e-cart/internal/order"
	"github.com/xact-softwaresolution/e-cart/internal/payment"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("db migrate: %v", err)
		}
	}

	// --- AMQP (optional) ---
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Fatalf("amqp connect: %v", err)
		}
		defer conn.Close()

		publisher, err = events.NewPublisher(conn)
		if err != nil {
			logger.Fatalf("amqp publisher: %v", err)
		}
		defer publisher.Close()
	} else {
		logger.Printf("AMQP_URL not set, event publication disabled")
	}

	// --- Payment gateway ---
	gateway, err := payment.NewRazorpayClient(
		cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret,
		&http.Client{Timeout: cfg.GatewayTimeout},
	)
	if err != nil {
		logger.Fatalf("payment gateway: %v", err)
	}

	// --- Services ---
	var orderEvents order.EventPublisher
	var paymentEvents payment.EventPublisher
	var inventoryEvents inventory.EventPublisher
	if publisher != nil {
		orderEvents = publisher
		paymentEvents = publisher
		inventoryEvents = publisher
	}

	orderSvc := order.NewService(pool, orderEvents, logger)
	paymentSvc := payment.NewService(pool, gateway, orderSvc, paymentEvents, logger)
	inventorySvc := inventory.NewService(pool, inventoryEvents, logger)

	// --- HTTP ---
	m := metrics.NewServerMetrics("checkout")
	router := httpapi.NewRouter(httpapi.Handlers{
		Orders:    httpapi.NewOrderHandler(orderSvc),
		Payments:  httpapi.NewPaymentHandler(paymentSvc),
		Inventory: httpapi.NewInventoryHandler(inventorySvc),
	}, m)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	logger.Printf("shutdown complete")
}
