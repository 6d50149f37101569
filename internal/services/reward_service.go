package services

import (
	"context"
	"sort"

	"github.com/mroshb/economy_bot/internal/formula"
	"github.com/mroshb/economy_bot/internal/ledger"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/internal/txn"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/shopspring/decimal"
)

// Reward kinds a pool can be redeemed as.
const (
	RewardKindXP   = "xp"
	RewardKindGold = "gold"
)

type RewardService struct {
	coord  *txn.Coordinator
	ledger *CharacterLedger
	guilds store.GuildConfigs
}

func NewRewardService(coord *txn.Coordinator, ledger *CharacterLedger, guilds store.GuildConfigs) *RewardService {
	return &RewardService{
		coord:  coord,
		ledger: ledger,
		guilds: guilds,
	}
}

// Accrue loads the grantor's ledger in tx, runs the formulas and saves the
// result. Nothing is saved when a formula fails.
func (s *RewardService) Accrue(tx store.Rewards, guildID, grantorUserID string, formulas map[string]string, in ledger.CalculateInput) (ledger.Values, error) {
	reward, err := tx.FindDMReward(guildID, grantorUserID, true)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get reward ledger")
	}
	if reward == nil {
		reward = &models.DMReward{GuildID: guildID, UserID: grantorUserID}
	}

	values := ledger.FromMap(reward.Values())
	if err := values.Calculate(formulas, in); err != nil {
		return nil, formulaError(err)
	}

	reward.SetValues(values)
	if err := tx.SaveDMReward(reward); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to save reward ledger")
	}
	return values, nil
}

// Draw consumes amount from vars of the user's ledger in tx. It reports
// false, without writing, when the ledger cannot cover amount.
func (s *RewardService) Draw(tx store.Rewards, guildID, userID string, amount float64, vars []string) (bool, ledger.Values, error) {
	reward, err := tx.FindDMReward(guildID, userID, true)
	if err != nil {
		return false, nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get reward ledger")
	}
	if reward == nil {
		return false, ledger.Values{}, nil
	}

	values := ledger.FromMap(reward.Values())
	if !values.Consume(amount, vars) {
		return false, values, nil
	}
	reward.SetValues(values)
	if err := tx.SaveDMReward(reward); err != nil {
		return false, nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to save reward ledger")
	}
	return true, values, nil
}

type Recipient struct {
	UserID   string
	CharName string
}

type GrantInput struct {
	GuildID       string
	GrantorUserID string
	Recipients    []Recipient
	RewardedXP    int64
	RewardedGold  decimal.Decimal
	ExtraValue    float64
}

type GrantResult struct {
	Characters []models.Character
	Values     ledger.Values
}

// Grant gives experience and gold to every recipient and accrues the
// grantor's reward ledger from the guild's formulas, all in one
// transaction.
func (s *RewardService) Grant(ctx context.Context, in GrantInput) (*GrantResult, error) {
	recipients := dedupeRecipients(in.Recipients)
	if len(recipients) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one character must be rewarded")
	}
	if err := checkGold("rewarded gold", in.RewardedGold); err != nil {
		return nil, err
	}

	cfg, err := s.guilds.GetGuildConfig(ctx, in.GuildID)
	if err != nil {
		return nil, err
	}
	formulas := cfg.Formulas()

	return txn.Run(ctx, s.coord, txn.Serializable("reward.grant"), func(tx store.Tx) (*GrantResult, error) {
		chars := make([]*models.Character, 0, len(recipients))
		var problems errors.List
		for _, r := range recipients {
			c, err := tx.FindCharacter(in.GuildID, r.UserID, r.CharName, true)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get character")
			}
			if c == nil || c.IsRetired {
				problems = append(problems, errors.Newf(errors.ErrCodeNotFound, "no character named %q for user %s", r.CharName, r.UserID))
				continue
			}
			chars = append(chars, c)
		}
		if err := problems.OrNil(); err != nil {
			return nil, err
		}

		calc := ledger.CalculateInput{
			RewardedXP:   float64(in.RewardedXP),
			RewardedGold: in.RewardedGold.InexactFloat64(),
			ExtraValue:   in.ExtraValue,
		}
		for _, c := range chars {
			calc.CharacterLevels = append(calc.CharacterLevels, c.Level)
			calc.CharacterXPs = append(calc.CharacterXPs, c.Experience)
		}

		values, err := s.Accrue(tx, in.GuildID, in.GrantorUserID, formulas, calc)
		if err != nil {
			return nil, err
		}

		result := &GrantResult{Values: values}
		for _, c := range chars {
			if err := s.ledger.EarnXp(tx, c, in.RewardedXP); err != nil {
				return nil, err
			}
			if err := s.ledger.EarnGold(tx, c.Key(), in.RewardedGold); err != nil {
				return nil, err
			}
			c.Gold = c.Gold.Add(in.RewardedGold)
			result.Characters = append(result.Characters, *c)
		}
		return result, nil
	})
}

// Consume draws amount from the user's ledger variables in the given
// order. It returns false, changing nothing, when they hold less.
func (s *RewardService) Consume(ctx context.Context, guildID, userID string, amount float64, vars []string) (bool, error) {
	if !(amount > 0) {
		return false, errors.New(errors.ErrCodeValidation, "amount must be greater than 0")
	}
	return txn.Run(ctx, s.coord, txn.Serializable("reward.consume"), func(tx store.Tx) (bool, error) {
		ok, _, err := s.Draw(tx, guildID, userID, amount, vars)
		return ok, err
	})
}

type RedeemInput struct {
	GuildID string
	UserID  string
	Pool    string
	Amount  decimal.Decimal
	Kind    string
	// CharName defaults to the user's active character.
	CharName string
}

type RedeemResult struct {
	Character models.Character
	Remaining float64
}

// Redeem turns pooled rewards into experience or gold on one of the
// user's own characters.
func (s *RewardService) Redeem(ctx context.Context, in RedeemInput) (*RedeemResult, error) {
	if !in.Amount.IsPositive() {
		return nil, errors.New(errors.ErrCodeValidation, "amount must be greater than 0")
	}
	switch in.Kind {
	case RewardKindXP:
		if !in.Amount.IsInteger() {
			return nil, errors.New(errors.ErrCodeValidation, "experience must be a whole number")
		}
	case RewardKindGold:
		if err := checkGold("gold", in.Amount); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "reward kind must be %q or %q", RewardKindXP, RewardKindGold)
	}

	cfg, err := s.guilds.GetGuildConfig(ctx, in.GuildID)
	if err != nil {
		return nil, err
	}
	vars, ok := cfg.RewardPoolVars(in.Pool)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "reward pool %q does not exist", in.Pool)
	}

	return txn.Run(ctx, s.coord, txn.Serializable("reward.redeem"), func(tx store.Tx) (*RedeemResult, error) {
		var c *models.Character
		var err error
		if in.CharName == "" {
			c, err = tx.FindActiveCharacter(in.GuildID, in.UserID, true)
		} else {
			c, err = tx.FindCharacter(in.GuildID, in.UserID, in.CharName, true)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get character")
		}
		if c == nil || c.IsRetired {
			if in.CharName == "" {
				return nil, noActiveCharacter(in.UserID)
			}
			return nil, errors.Newf(errors.ErrCodeNotFound, "no character named %q", in.CharName)
		}

		ok, values, err := s.Draw(tx, in.GuildID, in.UserID, in.Amount.InexactFloat64(), vars)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInsufficientFunds, "only %v available in pool %q", values.Value(vars), in.Pool)
		}

		if in.Kind == RewardKindXP {
			if err := s.ledger.EarnXp(tx, c, in.Amount.IntPart()); err != nil {
				return nil, err
			}
		} else {
			if err := s.ledger.EarnGold(tx, c.Key(), in.Amount); err != nil {
				return nil, err
			}
			c.Gold = c.Gold.Add(in.Amount)
		}
		return &RedeemResult{Character: *c, Remaining: values.Value(vars)}, nil
	})
}

type PoolBalance struct {
	Name      string
	Available float64
}

type RewardSummary struct {
	Pools  []PoolBalance
	Values ledger.Values
}

// Rewards lists what the user can still redeem, per configured pool.
func (s *RewardService) Rewards(ctx context.Context, guildID, userID string) (*RewardSummary, error) {
	cfg, err := s.guilds.GetGuildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}

	return txn.Run(ctx, s.coord, txn.ReadOnly("reward.list"), func(tx store.Tx) (*RewardSummary, error) {
		reward, err := tx.FindDMReward(guildID, userID, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get reward ledger")
		}
		values := ledger.Values{}
		if reward != nil {
			values = ledger.FromMap(reward.Values())
		}

		summary := &RewardSummary{Values: values}
		for _, name := range cfg.RewardPoolNames() {
			vars, _ := cfg.RewardPoolVars(name)
			if available := values.Value(vars); available > 0 {
				summary.Pools = append(summary.Pools, PoolBalance{Name: name, Available: available})
			}
		}
		return summary, nil
	})
}

// dedupeRecipients drops repeats and sorts by key so characters are
// always locked in the same order.
func dedupeRecipients(in []Recipient) []Recipient {
	seen := make(map[Recipient]struct{}, len(in))
	out := make([]Recipient, 0, len(in))
	for _, r := range in {
		if r.UserID == "" || r.CharName == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CharName < out[j].CharName
	})
	return out
}

func formulaError(err error) error {
	var fe *formula.Error
	if errors.As(err, &fe) {
		return errors.Wrap(fe, errors.ErrCodeFormula, fe.Error())
	}
	return errors.Wrap(err, errors.ErrCodeFormula, "failed to evaluate reward formulas")
}
