package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/roomsync/pkg/events"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/manager"
	"github.com/cbodonnell/roomsync/pkg/storage"
	"github.com/cbodonnell/roomsync/pkg/types"
)

type config struct {
	// Storage selects the persistence adapter: memory, file, sqlite, postgres.
	Storage string `env:"ROOMSYNC_STORAGE" envDefault:"memory"`
	// StoragePath is the file or database path for the file and sqlite adapters.
	StoragePath string `env:"ROOMSYNC_STORAGE_PATH" envDefault:"roomsync.db"`
	// DatabaseURL is the connection string for the postgres adapter.
	DatabaseURL string `env:"DATABASE_URL"`
}

func main() {
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to parse config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, err := newAdapter(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to create storage adapter: %v", err))
	}
	defer adapter.Close(ctx)

	m := manager.NewManager(manager.NewManagerOptions{
		Adapter: adapter,
	})

	m.Bus().Subscribe(events.ChannelRooms, func(payload interface{}) {
		rooms, ok := payload.([]*types.Room)
		if !ok {
			return
		}
		log.Debug("Rooms: %d", len(rooms))
	})

	log.Info("Starting room manager with %s storage", cfg.Storage)
	m.Start(ctx)

	<-ctx.Done()
	log.Info("Shutting down")
	m.Stop()
}

func newAdapter(ctx context.Context, cfg config) (storage.Adapter, error) {
	switch cfg.Storage {
	case "memory":
		return storage.NewInMemoryAdapter(), nil
	case "file":
		return storage.NewFileAdapter(cfg.StoragePath), nil
	case "sqlite":
		return storage.NewSQLiteAdapter(ctx, cfg.StoragePath)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable must be set")
		}
		return storage.NewPostgresAdapter(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage)
	}
}
