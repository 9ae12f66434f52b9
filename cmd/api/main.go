package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apikey-store/internal/apikey"
	"apikey-store/internal/catalog"
	"apikey-store/internal/client"
	"apikey-store/internal/config"
	"apikey-store/internal/logger"
	"apikey-store/internal/repository"
	"apikey-store/internal/server"
	"apikey-store/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("close store", "err", err)
		}
	}()

	products, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := store.Products.Seed(context.Background(), products); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	log.Info("catalog seeded", "products", len(products), "store", cfg.Store.Driver)

	var paypalClient client.PaypalClient
	if cfg.Paypal.Configured() {
		paypalClient = client.NewPaypalClient(&cfg.Paypal, cfg.Environment.Production())
	} else {
		log.Warn("paypal credentials missing, paypal routes will answer 503")
	}

	orderService := service.NewOrderService(
		store.Orders,
		store.Products,
		apikey.NewGenerator(),
		service.OrderOptions{
			DeferKeyIssuance: cfg.Orders.DeferKeyIssuance,
			DefaultCurrency:  cfg.Orders.DefaultCurrency,
			MaxQuantity:      cfg.Orders.MaxQuantity,
		},
		log,
	)

	srv := server.NewServer(server.Services{
		Orders:   orderService,
		Products: service.NewProductService(store.Products),
		Users:    service.NewUserService(store.Users),
		Paypal:   service.NewPaypalService(paypalClient, log),
	}, server.Options{
		AdminToken: cfg.Admin.Token,
		Logger:     log,
	})

	serverAddr := cfg.HTTP.Addr()
	errCh := make(chan error, 1)

	log.Info("starting HTTP server", "addr", serverAddr, "base_url", cfg.BaseURL)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (*repository.Store, error) {
	if cfg.Store.Driver == "memory" {
		return repository.NewMemoryStore(), nil
	}

	db, err := client.OpenDB(cfg.Store.Driver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}
