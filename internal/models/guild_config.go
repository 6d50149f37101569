package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GuildConfig holds per-guild economy parameters. The core only reads it.
type GuildConfig struct {
	ID                  string                                  `gorm:"primaryKey;type:varchar(64)"`
	Prefix              string                                  `gorm:"type:varchar(16);not null;default:'!'"`
	StartingGold        decimal.Decimal                         `gorm:"type:numeric(20,2);not null;default:0"`
	StartingLevel       int                                     `gorm:"not null;default:1"`
	RetirementKeepLevel int                                     `gorm:"not null;default:0"`
	RewardFormulas      datatypes.JSONType[map[string]string]   `gorm:"type:jsonb;not null"`
	RewardPools         datatypes.JSONType[map[string][]string] `gorm:"type:jsonb;not null"`
	CreatedAt           time.Time                               `gorm:"autoCreateTime"`
	UpdatedAt           time.Time                               `gorm:"autoUpdateTime"`
}

// DefaultGuildConfig is used for guilds that never stored a configuration.
func DefaultGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{
		ID:             guildID,
		Prefix:         "!",
		StartingGold:   decimal.Zero,
		StartingLevel:  1,
		RewardFormulas: datatypes.NewJSONType(map[string]string{}),
		RewardPools:    datatypes.NewJSONType(map[string][]string{}),
	}
}

// Formulas returns variable name -> expression.
func (g *GuildConfig) Formulas() map[string]string {
	out := make(map[string]string)
	for k, v := range g.RewardFormulas.Data() {
		out[k] = v
	}
	return out
}

// RewardPoolNames returns the configured pool names, sorted.
func (g *GuildConfig) RewardPoolNames() []string {
	pools := g.RewardPools.Data()
	names := make([]string, 0, len(pools))
	for name := range pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RewardPoolVars returns the ordered ledger variables a pool draws from.
func (g *GuildConfig) RewardPoolVars(pool string) ([]string, bool) {
	vars, ok := g.RewardPools.Data()[pool]
	if !ok {
		return nil, false
	}
	return append([]string(nil), vars...), true
}

func (g *GuildConfig) HasRewardPool(pool string) bool {
	_, ok := g.RewardPools.Data()[pool]
	return ok
}

func (GuildConfig) TableName() string {
	return "guild_configs"
}
