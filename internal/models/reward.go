package models

import (
	"time"

	"gorm.io/datatypes"
)

// DMReward is the reward ledger of one grantor in a guild.
type DMReward struct {
	GuildID        string                                `gorm:"primaryKey;type:varchar(64)"`
	UserID         string                                `gorm:"primaryKey;type:varchar(64)"`
	ComputedValues datatypes.JSONType[map[string]float64] `gorm:"type:jsonb;not null"`
	CreatedAt      time.Time                             `gorm:"autoCreateTime"`
	UpdatedAt      time.Time                             `gorm:"autoUpdateTime"`
}

// Values returns a copy of the stored ledger values.
func (r *DMReward) Values() map[string]float64 {
	stored := r.ComputedValues.Data()
	out := make(map[string]float64, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out
}

func (r *DMReward) SetValues(values map[string]float64) {
	cp := make(map[string]float64, len(values))
	for k, v := range values {
		cp[k] = v
	}
	r.ComputedValues = datatypes.NewJSONType(cp)
}

func (DMReward) TableName() string {
	return "dm_rewards"
}
