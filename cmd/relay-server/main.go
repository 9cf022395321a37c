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

	"github.com/spf13/pflag"

	"github.com/NeerajN2001/rfid-attendance/internal/config"
	"github.com/NeerajN2001/rfid-attendance/internal/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr string

	flagSet := pflag.NewFlagSet("relay-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $ATTENDANCE_CONFIG_PATH)")
	flagSet.StringVar(&addr, "addr", "", "listen address, overrides relay.addr")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Relay.Addr = addr
	}

	logger := log.New(os.Stdout, "relay-server ", log.LstdFlags|log.LUTC)
	logger.Printf("starting env=%s", cfg.Env)

	srv := relay.NewServer(relay.NewRegistry(), relay.Config{
		RegistrationTimeout: time.Duration(cfg.Relay.RegistrationTimeoutSeconds) * time.Second,
		SendQueueSize:       cfg.Relay.SendQueueSize,
		Logger:              logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Relay.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("listening on %s", cfg.Relay.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Shutdown does not wait for hijacked websocket connections; closing
	// the listener is enough for clients to notice and reconnect.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Printf("stopped with %d clients connected", srv.Registry().Len())
	return nil
}
