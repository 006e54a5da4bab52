// Package bootstrap connects the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"linkvault/internal/cache"
	"linkvault/internal/config"
	"linkvault/internal/database"
	"linkvault/internal/models"
	"linkvault/internal/observability"
	"linkvault/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty development database with demo content.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemoData {
		if err := seedDevelopment(context.Background(), cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func seedDevelopment(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	seeded, err := seed.NewSeeder(db).Run(ctx, seed.Options{
		NumUsers:         5,
		BookmarksPerUser: 10,
		BcryptCost:       cfg.BcryptCost,
	})
	if err != nil {
		return err
	}
	observability.GlobalLogger.InfoContext(ctx, "seeded empty development database",
		slog.Int("users", len(seeded)),
		slog.String("password", seed.DemoPassword),
	)
	return nil
}
