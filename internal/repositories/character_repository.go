package repositories

import (
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CharacterRepository struct {
	db *gorm.DB
}

func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func (r *CharacterRepository) byKey(key models.CharacterKey) *gorm.DB {
	return r.db.Model(&models.Character{}).
		Where("guild_id = ? AND user_id = ? AND name = ?", key.GuildID, key.UserID, key.Name)
}

func (r *CharacterRepository) FindCharacter(guildID, userID, name string, lock bool) (*models.Character, error) {
	var c models.Character
	err := lockFor(r.db, lock).
		Where("guild_id = ? AND user_id = ? AND name = ?", guildID, userID, name).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindActiveCharacter returns the user's active character
func (r *CharacterRepository) FindActiveCharacter(guildID, userID string, lock bool) (*models.Character, error) {
	var c models.Character
	err := lockFor(r.db, lock).
		Where("guild_id = ? AND user_id = ? AND is_active AND NOT is_retired", guildID, userID).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CharacterRepository) ListCharacters(guildID, userID string) ([]models.Character, error) {
	var chars []models.Character
	err := r.db.Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("name ASC").
		Find(&chars).Error
	return chars, translate(err)
}

func (r *CharacterRepository) CreateCharacter(c *models.Character) error {
	return translate(r.db.Create(c).Error)
}

// IncrementGold adds delta in SQL so the row never round-trips through Go
func (r *CharacterRepository) IncrementGold(key models.CharacterKey, delta decimal.Decimal) (int64, error) {
	result := r.byKey(key).Update("gold", gorm.Expr("gold + ?", delta))
	return result.RowsAffected, translate(result.Error)
}

func (r *CharacterRepository) UpdateExperience(key models.CharacterKey, experience int64, level int) (int64, error) {
	result := r.byKey(key).Updates(map[string]interface{}{
		"experience": experience,
		"level":      level,
	})
	return result.RowsAffected, translate(result.Error)
}

func (r *CharacterRepository) ActivateCharacter(key models.CharacterKey) (int64, error) {
	result := r.byKey(key).Where("NOT is_retired").Update("is_active", true)
	return result.RowsAffected, translate(result.Error)
}

func (r *CharacterRepository) DeactivateOthers(key models.CharacterKey) error {
	err := r.db.Model(&models.Character{}).
		Where("guild_id = ? AND user_id = ? AND name <> ? AND is_active", key.GuildID, key.UserID, key.Name).
		Update("is_active", false).Error
	return translate(err)
}

func (r *CharacterRepository) RetireCharacter(key models.CharacterKey) (int64, error) {
	result := r.byKey(key).Updates(map[string]interface{}{
		"is_retired": true,
		"is_active":  false,
	})
	return result.RowsAffected, translate(result.Error)
}

func (r *CharacterRepository) DeleteCharacter(key models.CharacterKey) (int64, error) {
	result := r.db.Where("guild_id = ? AND user_id = ? AND name = ?", key.GuildID, key.UserID, key.Name).
		Delete(&models.Character{})
	return result.RowsAffected, translate(result.Error)
}
