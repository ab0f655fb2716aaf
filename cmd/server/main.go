package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"github.com/outplayedgg/garrison-server/internal/api"
	"github.com/outplayedgg/garrison-server/internal/factory"
	"github.com/outplayedgg/garrison-server/internal/services/engine"
	redisstorage "github.com/outplayedgg/garrison-server/internal/storage/redis"
)

func main() {
	v := newConfig()
	if err := loadConfig(v); err != nil {
		slog.Error("failed to read config file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(v.GetString("log.level")),
	}))
	slog.SetDefault(logger)

	// Build factory config
	cfg := factory.Config{
		Logger:      logger,
		StorageType: v.GetString("storage.type"),
		EngineConfig: engine.Config{
			TickRate:       v.GetInt("game.tick_rate"),
			BroadcastEvery: v.GetInt("game.broadcast_every"),
			IncomeInterval: engine.DefaultConfig().IncomeInterval,
		},
		CountdownSeconds: v.GetInt("game.countdown_seconds"),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := v.GetString("storage.redis_url")
		if redisURL == "" {
			logger.Error("storage.redis_url required when storage.type=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Coordinator: app.Coordinator,
		Storage:     app.Storage,
		SocketHub:   app.Hub,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = v.GetString("server.host")
	serverConfig.Port = v.GetInt("server.port")
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// newConfig builds the viper instance with defaults and env binding.
// Every key is overridable via GARRISON_ env vars, e.g.
// GARRISON_SERVER_PORT=9090 or GARRISON_STORAGE_TYPE=redis.
func newConfig() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.type", factory.StorageTypeMemory)
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("game.tick_rate", 60)
	v.SetDefault("game.broadcast_every", 3)
	v.SetDefault("game.countdown_seconds", 5)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("GARRISON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadConfig reads an optional garrison.yaml from the working directory
// or /etc/garrison. A missing file is fine; a malformed one is not.
func loadConfig(v *viper.Viper) error {
	v.SetConfigName("garrison")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/garrison")

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
