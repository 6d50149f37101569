package repositories

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/mroshb/economy_bot/pkg/logger"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuildConfigRepository reads guild configuration through an LRU cache.
// Concurrent misses for the same guild share one query.
type GuildConfigRepository struct {
	db    *gorm.DB
	cache *lru.Cache
	group singleflight.Group
	load  func(ctx context.Context, guildID string) (*models.GuildConfig, error)
}

var _ store.GuildConfigs = (*GuildConfigRepository)(nil)

func NewGuildConfigRepository(db *gorm.DB, cacheSize int) (*GuildConfigRepository, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	r := &GuildConfigRepository{db: db, cache: cache}
	r.load = r.loadFromDB
	return r, nil
}

// GetGuildConfig returns the stored configuration, or the defaults when
// the guild never saved one. The result is shared and must not be mutated.
func (r *GuildConfigRepository) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	if v, ok := r.cache.Get(guildID); ok {
		return v.(*models.GuildConfig), nil
	}

	v, err, _ := r.group.Do(guildID, func() (interface{}, error) {
		cfg, err := r.load(ctx, guildID)
		if err != nil {
			return nil, err
		}
		r.cache.Add(guildID, cfg)
		return cfg, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get guild config")
	}
	return v.(*models.GuildConfig), nil
}

func (r *GuildConfigRepository) loadFromDB(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	var cfg models.GuildConfig
	err := r.db.WithContext(ctx).Where("id = ?", guildID).Take(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultGuildConfig(guildID), nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &cfg, nil
}

// SaveGuildConfig upserts cfg and drops the cached copy.
func (r *GuildConfigRepository) SaveGuildConfig(ctx context.Context, cfg *models.GuildConfig) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(cfg).Error
	r.Invalidate(cfg.ID)
	if err != nil {
		return errors.Wrap(translate(err), errors.ErrCodeInternalError, "failed to save guild config")
	}
	logger.Info("Guild config saved", "guild_id", cfg.ID)
	return nil
}

func (r *GuildConfigRepository) Invalidate(guildID string) {
	r.cache.Remove(guildID)
}
