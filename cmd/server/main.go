package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"relaychat/auth"
	"relaychat/engine"
	"relaychat/httpapi"
	"relaychat/hub"
	"relaychat/realtime"
	"relaychat/retention"
	"relaychat/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and manages the server lifecycle, so that
// deferred cleanup (badger close in particular) always executes before
// the process exits.
func run() error {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	codec, err := newCodec(config.StoreEncryptionKey)
	if err != nil {
		return err
	}

	entityStore := store.New(db, codec, log)
	eventHub := hub.New(log)
	eng := engine.New(entityStore, eventHub, log)
	if err := eng.Bootstrap(config.AdminEmail); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	manager := realtime.NewManager(eventHub, log, realtime.Options{
		MaxConnectionsPerUser: config.MaxConnectionsPerUser,
		StalenessTimeout:      config.ConnectionStaleness,
		HeartbeatInterval:     config.HeartbeatInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := retention.New(eng, log, retention.Config{
		Interval:              config.RetentionInterval,
		RetentionDays:         config.RetentionDays,
		MaxMessagesPerChannel: config.MaxMessagesPerChannel,
	})
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("retention sweeper stopped", "err", err)
		}
	}()

	verifier := auth.NewJWTVerifier([]byte(config.JWTSecret), "relaychat")
	api := httpapi.New(eng, manager, verifier, log)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: api.Router()}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "address", address)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func newCodec(hexKey string) (store.Codec, error) {
	if hexKey == "" {
		return store.PlainCodec{}, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("STORE_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	return store.NewAEADCodec(key)
}
