package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/outplayedgg/garrison-server/internal/dependencies/clock"
	"github.com/outplayedgg/garrison-server/internal/dependencies/random"
	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/auth"
	"github.com/outplayedgg/garrison-server/internal/services/engine"
	"github.com/outplayedgg/garrison-server/internal/services/room"
	"github.com/outplayedgg/garrison-server/internal/services/session"
	"github.com/outplayedgg/garrison-server/internal/storage"
	"github.com/outplayedgg/garrison-server/internal/storage/memory"
	redisstorage "github.com/outplayedgg/garrison-server/internal/storage/redis"
	"github.com/outplayedgg/garrison-server/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService *auth.Service
	RoomManager *room.Manager
	Coordinator *session.Coordinator
	Hub         *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// EngineConfig holds tick-loop settings (optional)
	// If zero value, defaults to engine.DefaultConfig()
	EngineConfig engine.Config
	// CountdownSeconds overrides the pre-match countdown (optional)
	CountdownSeconds int
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	engineCfg := cfg.EngineConfig
	if engineCfg.TickRate == 0 {
		engineCfg = engine.DefaultConfig()
	}

	app := newWithDependencies(store, clk, rnd, authCfg, engineCfg, logger)
	if cfg.CountdownSeconds > 0 {
		app.Coordinator.SetCountdownSeconds(cfg.CountdownSeconds)
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	engineCfg engine.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, rnd, authCfg, logger)
	roomManager := room.NewManager(clk, rnd, logger)
	hub := ws.NewHub(logger)

	coordinator := session.NewCoordinator(
		roomManager,
		clk,
		hub,
		engineCfg,
		engine.Hooks{},
		&storageRecorder{store: store},
		newMatchID,
		logger,
	)
	hub.Bind(coordinator)
	hub.SetIdentityResolver(func(token string) (model.PlayerID, string, bool) {
		sess, err := authService.ValidateSession(token)
		if err != nil {
			return "", "", false
		}
		return sess.PlayerID, sess.Player.DisplayName, true
	})

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		AuthService: authService,
		RoomManager: roomManager,
		Coordinator: coordinator,
		Hub:         hub,
	}
}

func newMatchID() model.MatchID {
	return model.MatchID(uuid.NewString())
}

// storageRecorder adapts the storage layer to the coordinator's
// MatchRecorder interface.
type storageRecorder struct {
	store storage.Storage
}

func (r *storageRecorder) RecordMatch(ctx context.Context, summary model.MatchSummary) error {
	return r.store.SaveMatch(ctx, &summary)
}
