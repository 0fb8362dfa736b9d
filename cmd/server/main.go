package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"multiworld/pkg/events"
	"multiworld/pkg/log"
	"multiworld/pkg/network"
	"multiworld/pkg/persistence"
	"multiworld/pkg/registry"
	"multiworld/pkg/repositories"
	"multiworld/pkg/version"
	"multiworld/pkg/workers"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	serverURL := flag.String("server-url", "ws://localhost:8080", "Public URL clients use to reach this server")
	logLevel := flag.String("log-level", "info", "Log level")
	certFile := flag.String("cert-file", "", "TLS certificate file")
	keyFile := flag.String("key-file", "", "TLS key file")
	migrations := flag.String("migrations", "migrations", "Directory of SQLite migration files")
	natsURL := flag.String("nats-url", "", "NATS server URL for lifecycle events (disabled if empty)")
	sweepInterval := flag.Duration("sweep-interval", workers.DefaultSweepInterval, "Interval between lifecycle sweeps")
	idleTimeout := flag.Duration("idle-timeout", workers.DefaultIdleTimeout, "Idle time before a game is evicted from memory")
	retention := flag.Duration("retention", workers.DefaultRetention, "Inactivity time before a persisted game is deleted")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, err := newRepository(ctx, *migrations)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	if repository != nil {
		defer repository.Close(ctx)
	} else {
		log.Warn("DATABASE_URL is not set, persistence is disabled")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if *natsURL != "" {
		natsPublisher, err := events.NewNatsPublisher(*natsURL)
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to NATS: %v", err))
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	gameRegistry := registry.New()
	gateway := persistence.NewGateway(repository)
	go gateway.Start(ctx)

	hub := network.NewHub()
	sweeper := workers.NewLifecycleSweeper(workers.NewLifecycleSweeperOptions{
		Registry:    gameRegistry,
		Gateway:     gateway,
		Closer:      hub,
		Interval:    *sweepInterval,
		IdleTimeout: *idleTimeout,
		Retention:   *retention,
		OnExpired: func(gameIDs []string) {
			for _, gameID := range gameIDs {
				publisher.Publish(events.Event{GameID: gameID, Type: events.EventGameExpired, Timestamp: time.Now()})
			}
		},
	})
	go sweeper.Start(ctx)

	handler := network.NewCoordinationHandler(network.NewCoordinationHandlerOptions{
		Registry:  gameRegistry,
		Gateway:   gateway,
		Hub:       hub,
		Publisher: publisher,
		ServerURL: *serverURL,
	})

	var tlsConfig *network.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &network.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}
	wsServer := network.NewWSServer(network.NewWSServerOptions{
		Port:    *port,
		TLS:     tlsConfig,
		Hub:     hub,
		Handler: handler,
	})
	wsServer.Start(ctx)
}

// newRepository picks a backend from DATABASE_URL: a postgres URL, a
// SQLite file path, or empty for no persistence at all.
func newRepository(ctx context.Context, migrations string) (repositories.Repository, error) {
	connStr := os.Getenv("DATABASE_URL")
	switch {
	case connStr == "":
		return nil, nil
	case strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://"):
		return repositories.NewPostgresRepository(ctx, connStr)
	default:
		return repositories.NewSQLiteRepository(ctx, connStr, migrations)
	}
}
