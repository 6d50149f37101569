package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoldScale is the number of decimal places gold columns store.
const GoldScale = 2

// IsGoldAmount reports whether amount is stored without rounding.
func IsGoldAmount(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(GoldScale))
}

type Character struct {
	GuildID    string          `gorm:"primaryKey;type:varchar(64)"`
	UserID     string          `gorm:"primaryKey;type:varchar(64)"`
	Name       string          `gorm:"primaryKey;type:varchar(100)"`
	Gold       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Experience int64           `gorm:"not null;default:0"`
	Level      int             `gorm:"not null;default:1"`
	IsActive   bool            `gorm:"not null;default:false"`
	IsRetired  bool            `gorm:"not null;default:false"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

// Key identifies a character without loading it.
type CharacterKey struct {
	GuildID string
	UserID  string
	Name    string
}

func (c *Character) Key() CharacterKey {
	return CharacterKey{GuildID: c.GuildID, UserID: c.UserID, Name: c.Name}
}

func (k CharacterKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.GuildID, k.UserID, k.Name)
}

// CanAfford reports whether gold covers amount.
func (c *Character) CanAfford(amount decimal.Decimal) bool {
	return c.Gold.GreaterThanOrEqual(amount)
}

// GetXPBar returns a visual progress bar towards the next level
func (c *Character) GetXPBar() string {
	if c.Level >= MaxLevel {
		return "[■■■■■■■■■■] MAX"
	}

	floor := XPFromLevel(c.Level)
	span := XPFromLevel(c.Level+1) - floor
	percentage := 0
	if span > 0 {
		percentage = int(float64(c.Experience-floor) / float64(span) * 100)
	}
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	filled := percentage / 10
	return "[" + strings.Repeat("■", filled) + strings.Repeat("□", 10-filled) + fmt.Sprintf("] %d%%", percentage)
}

// BeforeCreate hook for validation
func (c *Character) BeforeCreate(tx *gorm.DB) error {
	if c.GuildID == "" || c.UserID == "" || strings.TrimSpace(c.Name) == "" {
		return gorm.ErrInvalidData
	}
	if c.Experience < 0 || c.Experience > MaxXP {
		return gorm.ErrInvalidData
	}
	if c.Level != LevelFromXP(c.Experience) {
		return gorm.ErrInvalidData
	}
	if c.IsActive && c.IsRetired {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Character) TableName() string {
	return "characters"
}
