package services

import (
	"context"
	"sort"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/security"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/internal/txn"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/shopspring/decimal"
)

type CharacterService struct {
	coord  *txn.Coordinator
	ledger *CharacterLedger
	guilds store.GuildConfigs
}

func NewCharacterService(coord *txn.Coordinator, ledger *CharacterLedger, guilds store.GuildConfigs) *CharacterService {
	return &CharacterService{
		coord:  coord,
		ledger: ledger,
		guilds: guilds,
	}
}

type RegisterInput struct {
	GuildID string
	UserID  string
	Name    string
	// Experience and Gold default to the guild's starting values.
	Experience *int64
	Gold       *decimal.Decimal
}

// Register creates a character. It becomes active when the user has no
// active character yet.
func (s *CharacterService) Register(ctx context.Context, in RegisterInput) (*models.Character, error) {
	name := security.CharacterName(in.Name)
	if name == "" {
		return nil, errors.New(errors.ErrCodeValidation, "character name is required")
	}

	cfg, err := s.guilds.GetGuildConfig(ctx, in.GuildID)
	if err != nil {
		return nil, err
	}

	experience := models.XPFromLevel(cfg.StartingLevel)
	if in.Experience != nil {
		if *in.Experience > models.MaxXP {
			return nil, errors.Newf(errors.ErrCodeValidation, "experience cannot exceed %d", models.MaxXP)
		}
		experience = models.ClampXP(*in.Experience)
	}
	gold := cfg.StartingGold
	if in.Gold != nil {
		if in.Gold.IsNegative() {
			return nil, errors.New(errors.ErrCodeValidation, "starting gold cannot be negative")
		}
		if err := checkGold("starting gold", *in.Gold); err != nil {
			return nil, err
		}
		gold = *in.Gold
	}

	return txn.Run(ctx, s.coord, txn.Serializable("character.register"), func(tx store.Tx) (*models.Character, error) {
		existing, err := tx.FindCharacter(in.GuildID, in.UserID, name, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get character")
		}
		if existing != nil {
			return nil, errors.Newf(errors.ErrCodeAlreadyExists, "you already have a character named %q", name)
		}
		active, err := tx.FindActiveCharacter(in.GuildID, in.UserID, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get active character")
		}

		c := &models.Character{
			GuildID:    in.GuildID,
			UserID:     in.UserID,
			Name:       name,
			Gold:       gold,
			Experience: experience,
			Level:      models.LevelFromXP(experience),
			IsActive:   active == nil,
		}
		if err := tx.CreateCharacter(c); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, errors.Newf(errors.ErrCodeAlreadyExists, "you already have a character named %q", name)
			}
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create character")
		}
		return c, nil
	})
}

// SetActive switches the user's active character.
func (s *CharacterService) SetActive(ctx context.Context, guildID, userID, name string) (*models.Character, error) {
	name = security.CharacterName(name)
	return txn.Run(ctx, s.coord, txn.Serializable("character.activate"), func(tx store.Tx) (*models.Character, error) {
		c, err := tx.FindCharacter(guildID, userID, name, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get character")
		}
		if c == nil || c.IsRetired {
			return nil, errors.Newf(errors.ErrCodeNotFound, "no character named %q that can be activated", name)
		}
		if err := s.ledger.SetActive(tx, c.Key()); err != nil {
			return nil, err
		}
		c.IsActive = true
		return c, nil
	})
}

type RetireResult struct {
	Character models.Character
	// Deleted is set when the character was below the guild's keep level
	// and was removed instead of retired.
	Deleted bool
}

// Retire retires a character, or deletes it when its level is below the
// guild's retirement keep level. Characters tied to an open auction cannot
// retire.
func (s *CharacterService) Retire(ctx context.Context, guildID, userID, name string) (*RetireResult, error) {
	name = security.CharacterName(name)
	cfg, err := s.guilds.GetGuildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}

	return txn.Run(ctx, s.coord, txn.Serializable("character.retire"), func(tx store.Tx) (*RetireResult, error) {
		c, err := tx.FindCharacter(guildID, userID, name, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get character")
		}
		if c == nil {
			return nil, errors.Newf(errors.ErrCodeNotFound, "no character named %q", name)
		}
		if c.IsRetired {
			return nil, errors.Newf(errors.ErrCodeValidation, "%s is already retired", c.Name)
		}

		open, err := tx.CountOpenAuctionsInvolving(c.Key())
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count auctions")
		}
		if open > 0 {
			return nil, errors.Newf(errors.ErrCodeEscrowHeld, "%s is involved in %d open auction(s)", c.Name, open)
		}

		result := &RetireResult{Character: *c}
		var rows int64
		if c.Level < cfg.RetirementKeepLevel {
			rows, err = tx.DeleteCharacter(c.Key())
			result.Deleted = true
		} else {
			rows, err = tx.RetireCharacter(c.Key())
			result.Character.IsRetired = true
			result.Character.IsActive = false
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to retire character")
		}
		if rows != 1 {
			return nil, errors.Newf(errors.ErrCodeNotFound, "no character named %q", name)
		}
		return result, nil
	})
}

func (s *CharacterService) List(ctx context.Context, guildID, userID string) ([]models.Character, error) {
	return txn.Run(ctx, s.coord, txn.ReadOnly("character.list"), func(tx store.Tx) ([]models.Character, error) {
		chars, err := tx.ListCharacters(guildID, userID)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list characters")
		}
		return chars, nil
	})
}

func (s *CharacterService) Active(ctx context.Context, guildID, userID string) (*models.Character, error) {
	return txn.Run(ctx, s.coord, txn.ReadOnly("character.active"), func(tx store.Tx) (*models.Character, error) {
		c, err := tx.FindActiveCharacter(guildID, userID, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get active character")
		}
		if c == nil {
			return nil, noActiveCharacter(userID)
		}
		return c, nil
	})
}

// Spend removes gold from the user's active character.
func (s *CharacterService) Spend(ctx context.Context, guildID, userID string, amount decimal.Decimal) (*models.Character, error) {
	if !amount.IsPositive() {
		return nil, errors.New(errors.ErrCodeValidation, "amount must be greater than 0")
	}
	if err := checkGold("amount", amount); err != nil {
		return nil, err
	}

	return txn.Run(ctx, s.coord, txn.Serializable("character.spend"), func(tx store.Tx) (*models.Character, error) {
		c, err := tx.FindActiveCharacter(guildID, userID, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get active character")
		}
		if c == nil {
			return nil, noActiveCharacter(userID)
		}
		if !c.CanAfford(amount) {
			return nil, errors.Newf(errors.ErrCodeInsufficientFunds, "%s only has %s gold", c.Name, c.Gold)
		}
		if err := s.ledger.EarnGold(tx, c.Key(), amount.Neg()); err != nil {
			return nil, err
		}
		c.Gold = c.Gold.Sub(amount)
		return c, nil
	})
}

type TransferInput struct {
	GuildID    string
	FromUserID string
	ToUserID   string
	ToCharName string
	Amount     decimal.Decimal
}

// Transfer moves gold from the sender's active character to a named
// character and records it in the transfer log.
func (s *CharacterService) Transfer(ctx context.Context, in TransferInput) (*models.TransferLog, error) {
	if !in.Amount.IsPositive() {
		return nil, errors.New(errors.ErrCodeValidation, "amount must be greater than 0")
	}
	if err := checkGold("amount", in.Amount); err != nil {
		return nil, err
	}
	toName := security.CharacterName(in.ToCharName)

	return txn.Run(ctx, s.coord, txn.Serializable("character.transfer"), func(tx store.Tx) (*models.TransferLog, error) {
		active, err := tx.FindActiveCharacter(in.GuildID, in.FromUserID, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get active character")
		}
		if active == nil {
			return nil, noActiveCharacter(in.FromUserID)
		}
		toKey := models.CharacterKey{GuildID: in.GuildID, UserID: in.ToUserID, Name: toName}
		if active.Key() == toKey {
			return nil, errors.New(errors.ErrCodeValidation, "cannot transfer gold to the same character")
		}

		locked, err := lockCharacters(tx, active.Key(), toKey)
		if err != nil {
			return nil, err
		}
		from, to := locked[active.Key()], locked[toKey]
		if from == nil || !from.IsActive || from.IsRetired {
			return nil, noActiveCharacter(in.FromUserID)
		}
		if to == nil || to.IsRetired {
			return nil, errors.Newf(errors.ErrCodeNotFound, "no character named %q", toName)
		}
		if !from.CanAfford(in.Amount) {
			return nil, errors.Newf(errors.ErrCodeInsufficientFunds, "%s only has %s gold", from.Name, from.Gold)
		}

		if err := s.ledger.EarnGold(tx, from.Key(), in.Amount.Neg()); err != nil {
			return nil, err
		}
		if err := s.ledger.EarnGold(tx, to.Key(), in.Amount); err != nil {
			return nil, err
		}

		log := &models.TransferLog{
			GuildID:             in.GuildID,
			Amount:              in.Amount,
			Kind:                models.TransferKindTransfer,
			SourceUserID:        from.UserID,
			SourceCharName:      from.Name,
			DestinationUserID:   to.UserID,
			DestinationCharName: to.Name,
		}
		if err := tx.CreateTransferLog(log); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to write transfer log")
		}
		return log, nil
	})
}

// lockCharacters locks keys ordered by (userId, name) so concurrent
// transfers between the same characters never wait on each other in a
// cycle. Missing characters map to nil.
func lockCharacters(tx store.Tx, keys ...models.CharacterKey) (map[models.CharacterKey]*models.Character, error) {
	sorted := append([]models.CharacterKey(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].UserID != sorted[j].UserID {
			return sorted[i].UserID < sorted[j].UserID
		}
		return sorted[i].Name < sorted[j].Name
	})

	out := make(map[models.CharacterKey]*models.Character, len(sorted))
	for _, key := range sorted {
		c, err := tx.FindCharacter(key.GuildID, key.UserID, key.Name, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get character")
		}
		out[key] = c
	}
	return out, nil
}
