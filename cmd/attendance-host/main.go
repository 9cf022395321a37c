package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/NeerajN2001/rfid-attendance/internal/attendance/service"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/session"
	"github.com/NeerajN2001/rfid-attendance/internal/attendance/store/sqlite"
	"github.com/NeerajN2001/rfid-attendance/internal/config"
	"github.com/NeerajN2001/rfid-attendance/internal/db"
	"github.com/NeerajN2001/rfid-attendance/internal/health"
	"github.com/NeerajN2001/rfid-attendance/internal/httpapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	flagSet := pflag.NewFlagSet("attendance-host", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $ATTENDANCE_CONFIG_PATH)")
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
	logger := log.New(os.Stdout, "attendance-host ", log.LstdFlags|log.LUTC)
	logger.Printf("starting env=%s db=%s", cfg.Env, cfg.DBPath)

	loc := time.Local
	if cfg.Host.TimeZone != "" {
		if loc, err = time.LoadLocation(cfg.Host.TimeZone); err != nil {
			return fmt.Errorf("time zone %q: %w", cfg.Host.TimeZone, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage.  Seeding runs in every env: a fresh database needs the
	// default admin before any badge can be administered.
	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Seed(ctx, sqlDB, db.SeedOptions{
		ResetTime: cfg.Host.DefaultResetTime,
		AdminRole: cfg.Host.PrivilegedRole,
	}); err != nil {
		return err
	}

	writer := db.NewWorker(sqlDB)
	defer writer.Close()

	directory := service.NewDirectory(sqlite.NewDirectoryStore(sqlDB, writer))
	if err := directory.Reload(ctx); err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	logger.Printf("directory loaded: %d users", directory.Len())

	engine := service.NewEngine(directory,
		sqlite.NewSettingsStore(sqlDB, writer),
		sqlite.NewLogStore(sqlDB, writer),
		service.EngineConfig{
			PrivilegedRole: cfg.Host.PrivilegedRole,
			Location:       loc,
			Logger:         logger,
		})
	dispatcher := session.NewDispatcher(engine, logger)

	// gRPC health
	healthSrv := health.New(logger)
	lis, err := net.Listen("tcp", cfg.Host.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	go func() {
		logger.Printf("grpc health listening on %s", cfg.Host.GRPCAddr)
		if err := healthSrv.Serve(lis); err != nil {
			logger.Printf("grpc server error: %v", err)
			stop()
		}
	}()

	// Relay session
	client := session.NewClient(dispatcher, session.ClientConfig{
		RelayURL: cfg.Host.RelayURL,
		Name:     cfg.Host.ClientName,
		Target:   cfg.Host.TargetName,
		Logger:   logger,
	})
	supervisor := session.NewSupervisor(client, session.SupervisorConfig{
		ReconnectInterval: time.Duration(cfg.Host.ReconnectIntervalSeconds) * time.Second,
		OnState:           healthSrv.SetServing,
	}, logger)
	supervisor.Start(ctx)

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger,
		Addr:       cfg.Host.HTTPAddr,
		Engine:     engine,
		Dispatcher: dispatcher,
	})
	go func() {
		logger.Printf("admin api listening on %s", cfg.Host.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	supervisor.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	healthSrv.Stop()
	return nil
}
