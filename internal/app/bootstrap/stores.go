package bootstrap

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/rental-intake-bot/internal/config"
	"github.com/wolfman30/rental-intake-bot/internal/listings"
	"github.com/wolfman30/rental-intake-bot/internal/session"
	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

// SessionStores is the selected conversation store. Memory is set only for
// the in-process backend, which needs a janitor.
type SessionStores struct {
	Store  session.Store
	Memory *session.MemoryStore
}

// BuildSessionStore selects the conversation state backend.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (SessionStores, error) {
	if cfg == nil {
		return SessionStores{}, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.SessionBackend {
	case appconfig.SessionBackendRedis:
		if redisClient == nil {
			return SessionStores{}, fmt.Errorf("bootstrap: redis session backend selected but redis is unavailable")
		}
		logger.Info("using redis session store", "ttl", cfg.SessionTTL)
		return SessionStores{Store: session.NewRedisStore(redisClient, cfg.SessionTTL)}, nil
	case appconfig.SessionBackendMemory, "":
		mem := session.NewMemoryStore(cfg.SessionTTL)
		logger.Info("using in-memory session store", "ttl", cfg.SessionTTL)
		return SessionStores{Store: mem, Memory: mem}, nil
	default:
		return SessionStores{}, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildListingRepository returns the Postgres repository when a pool is
// available, otherwise an in-memory one, seeded with demo listings on request.
func BuildListingRepository(cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) listings.Repository {
	if logger == nil {
		logger = logging.Default()
	}
	if pool != nil {
		logger.Info("using postgres listing repository")
		return listings.NewPostgresRepository(pool)
	}

	repo := listings.NewInMemoryRepository()
	if cfg != nil && cfg.ListingsSeed {
		samples := listings.SampleListings()
		repo.Seed(samples...)
		logger.Info("seeded in-memory listings", "count", len(samples))
	}
	logger.Warn("DATABASE_URL not set; listings are kept in memory")
	return repo
}
