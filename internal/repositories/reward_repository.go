package repositories

import (
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) FindDMReward(guildID, userID string, lock bool) (*models.DMReward, error) {
	var reward models.DMReward
	err := lockFor(r.db, lock).Where("guild_id = ? AND user_id = ?", guildID, userID).Take(&reward).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &reward, nil
}

// SaveDMReward upserts the ledger row
func (r *RewardRepository) SaveDMReward(reward *models.DMReward) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"computed_values", "updated_at"}),
	}).Create(reward).Error
	return translate(err)
}
