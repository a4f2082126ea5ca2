package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/semanticallynull/bikemap/api"
	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/internal/config"
	"github.com/semanticallynull/bikemap/internal/o11y"
	"github.com/semanticallynull/bikemap/viewmodel"
)

var cli = struct {
	config.Config `embed:""`

	Port int `name:"port" env:"PORT" default:"8080"`

	MetricsUsername string `name:"metrics-username" env:"METRICS_USERNAME"`
	MetricsPassword string `name:"metrics-password" env:"METRICS_PASSWORD"`
}{}

func main() {
	if err := run(); err != nil {
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	kong.Parse(&cli, kong.Description("Bike map and reservation server."))

	obs, cleanup, err := o11y.Setup(ctx, o11y.Options{
		LogLevel:     cli.LogLevel,
		LogFormat:    cli.LogFormat,
		OTLPEndpoint: cli.OTLPEndpoint,
		SampleRatio:  cli.SampleRatio,
	})
	defer cleanup()
	if err != nil {
		return err
	}

	comps, err := cli.Build(ctx, bike.WithLogger(obs.Logger))
	if err != nil {
		return fmt.Errorf("failed to build components: %w", err)
	}
	defer func() {
		if err := comps.Close(); err != nil {
			obs.Logger.Warn("failed to close components", "error", err)
		}
	}()

	vm := viewmodel.New(comps.Inventory, comps.Ledger,
		viewmodel.WithPublisher(comps.Events),
		viewmodel.WithLogger(obs.Logger),
	)

	a := api.New(vm, api.Options{
		Logger:          obs.Logger,
		Registry:        obs.Registry,
		MetricsUsername: cli.MetricsUsername,
		MetricsPassword: cli.MetricsPassword,
	})

	serv := http.Server{
		Addr:              fmt.Sprintf(":%d", cli.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obs.Logger.Info("listening", "addr", serv.Addr, "store", cli.Store, "inventory", cli.InventoryURL)
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return serv.Shutdown(ctx)
}
