/*
Package main is the entry point for the chat server.

It is responsible for loading configuration, initializing the global logging system,
wiring the storage backends and optional display cache and avatar signing,
starting the chat Hub and HTTP server, and gracefully handling operating system
interrupt signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chatcore/internal/app/chat"
	"chatcore/internal/app/db"
	"chatcore/internal/app/message"
	"chatcore/internal/app/room"
	"chatcore/internal/app/storage"
	"chatcore/internal/app/user"
	"chatcore/internal/configs"
	"chatcore/internal/handler"
	"chatcore/internal/pkg/logx"
)

// backends groups the storage collaborators selected by STORAGE_DRIVER.
type backends struct {
	messages message.Store
	rooms    room.Directory
	users    user.Lookup
	close    func()
}

func openBackends(ctx context.Context, cfg *configs.AppConfig) (*backends, error) {
	if cfg.StorageDriver == configs.StorageMemory {
		return &backends{
			messages: message.NewMemoryStore(),
			rooms:    room.NewMemoryDirectory(),
			users:    user.NewMemoryLookup(),
			close:    func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN, db.PoolOptions{})
	if err != nil {
		return nil, err
	}

	return &backends{
		messages: message.NewPostgresStore(pool),
		rooms:    room.NewPostgresDirectory(pool),
		users:    user.NewPostgresLookup(pool),
		close:    pool.Close,
	}, nil
}

// decorateLookup layers the optional Redis cache and avatar signing over base.
func decorateLookup(ctx context.Context, cfg *configs.AppConfig, base user.Lookup) (user.Lookup, *user.CachedLookup, func(), error) {
	lookup := base
	var cached *user.CachedLookup
	closeFn := func() {}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// the cache degrades to direct lookups, so an unreachable Redis is not fatal
			logx.Warn("Redis unreachable at startup, display cache will fall back", "addr", cfg.RedisAddr, "error", err)
		}

		cached = user.NewCachedLookup(lookup, client, "chatcore:display:", cfg.DisplayCacheTTL)
		lookup = cached
		closeFn = func() { client.Close() }
	}

	if cfg.S3Enabled() {
		signer, err := storage.NewSigner(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		lookup = user.NewSignedLookup(lookup, signer, cfg.AvatarURLTTL)
	}

	return lookup, cached, closeFn, nil
}

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("storage_driver", cfg.StorageDriver).
		Bool("display_cache", cfg.RedisAddr != "").
		Bool("avatar_signing", cfg.S3Enabled()).
		Bool("strict_room_access", cfg.StrictRoomAccess).
		Str("time_zone", cfg.TimeZone.String()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackends(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open storage backends")
	}
	defer store.close()

	lookup, displayCache, closeCache, err := decorateLookup(ctx, cfg, store.users)
	if err != nil {
		logx.Fatal(err, "Failed to initialize identity lookup")
	}
	defer closeCache()

	roomService := room.NewService(store.rooms)

	var access chat.AccessPolicy
	if cfg.StrictRoomAccess {
		access = roomService
	}

	// Initialize the chat Hub
	hub := chat.NewHub(chat.HubConfig{
		JWTSecret:    cfg.JWTSecret,
		QueueSize:    cfg.SessionQueueSize,
		StoreTimeout: cfg.StoreTimeout,
		TimeZone:     cfg.TimeZone,
		Access:       access,
	}, store.messages, store.rooms, lookup)

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Hub:          hub,
		Rooms:        roomService,
		Messages:     store.messages,
		Config:       cfg,
		DisplayCache: displayCache,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Hijacked websocket connections are not tracked by the server; the Hub closes them.
	hub.Shutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
