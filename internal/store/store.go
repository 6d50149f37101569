// Package store defines the persistence contract of the economy engine.
//
// Lookups return (nil, nil) when the record does not exist. Methods that
// update by key report the number of affected rows so callers can tell a
// missing target from a successful write.
package store

import (
	"context"
	"database/sql"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/shopspring/decimal"
)

// Store opens transactions.
type Store interface {
	Begin(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

// Tx is a single store transaction. Rollback after Commit is a no-op.
type Tx interface {
	Characters
	Auctions
	Rewards
	TransferLogs

	Commit() error
	Rollback() error
}

type Characters interface {
	FindCharacter(guildID, userID, name string, lock bool) (*models.Character, error)
	// FindActiveCharacter returns the active, non-retired character of a user.
	FindActiveCharacter(guildID, userID string, lock bool) (*models.Character, error)
	ListCharacters(guildID, userID string) ([]models.Character, error)
	CreateCharacter(c *models.Character) error
	// IncrementGold adds delta to the stored gold in place.
	IncrementGold(key models.CharacterKey, delta decimal.Decimal) (int64, error)
	UpdateExperience(key models.CharacterKey, experience int64, level int) (int64, error)
	ActivateCharacter(key models.CharacterKey) (int64, error)
	DeactivateOthers(key models.CharacterKey) error
	RetireCharacter(key models.CharacterKey) (int64, error)
	DeleteCharacter(key models.CharacterKey) (int64, error)
}

type Auctions interface {
	FindAuction(guildID string, id uint, lock bool) (*models.Auction, error)
	CreateAuction(a *models.Auction) error
	// SaveAuctionState writes the bid fields and the sold/canceled flags.
	SaveAuctionState(a *models.Auction) (int64, error)
	DeleteAuction(guildID string, id uint) (int64, error)
	ListOpenAuctions(guildID string) ([]models.Auction, error)
	// CountOpenAuctionsInvolving counts open auctions where the character is
	// the seller or the current escrow holder.
	CountOpenAuctionsInvolving(key models.CharacterKey) (int64, error)
}

type Rewards interface {
	FindDMReward(guildID, userID string, lock bool) (*models.DMReward, error)
	SaveDMReward(r *models.DMReward) error
}

type TransferLogs interface {
	CreateTransferLog(l *models.TransferLog) error
}

// GuildConfigs provides read-only guild configuration.
type GuildConfigs interface {
	GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
}
