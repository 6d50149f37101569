package services

import (
	"fmt"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/shopspring/decimal"
)

// CharacterLedger holds the gold and experience primitives shared by the
// auction and reward flows. It never opens transactions itself; every call
// joins the transaction it is handed.
type CharacterLedger struct{}

func NewCharacterLedger() *CharacterLedger {
	return &CharacterLedger{}
}

// checkGold rejects amounts the gold columns would round.
func checkGold(what string, amount decimal.Decimal) error {
	if !models.IsGoldAmount(amount) {
		return errors.Newf(errors.ErrCodeValidation, "%s can have at most %d decimals", what, models.GoldScale)
	}
	return nil
}

func (l *CharacterLedger) increment(tx store.Characters, key models.CharacterKey, delta decimal.Decimal, what string) error {
	if err := checkGold("gold", delta); err != nil {
		return err
	}
	rows, err := tx.IncrementGold(key, delta)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, fmt.Sprintf("failed to %s", what))
	}
	if rows != 1 {
		return errors.New(errors.ErrCodeInternalError, fmt.Sprintf("failed to %s: character %s not found", what, key))
	}
	return nil
}

// ChargeAndEscrow removes amount from the character. The auction holds it
// until it is refunded or paid to a seller.
func (l *CharacterLedger) ChargeAndEscrow(tx store.Characters, key models.CharacterKey, amount decimal.Decimal) error {
	return l.increment(tx, key, amount.Neg(), "charge escrow")
}

// RefundEscrow returns an escrowed amount to the character that paid it.
func (l *CharacterLedger) RefundEscrow(tx store.Characters, key models.CharacterKey, amount decimal.Decimal) error {
	return l.increment(tx, key, amount, "refund escrow")
}

// EarnGold adds delta, which may be negative.
func (l *CharacterLedger) EarnGold(tx store.Characters, key models.CharacterKey, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return l.increment(tx, key, delta, "update gold")
}

// EarnXp adds delta to c's experience, clamped to [0, MaxXP], and stores
// the recomputed level. c must have been read in tx and is updated in place.
func (l *CharacterLedger) EarnXp(tx store.Characters, c *models.Character, delta int64) error {
	experience := models.AddXP(c.Experience, delta)
	level := models.LevelFromXP(experience)

	rows, err := tx.UpdateExperience(c.Key(), experience, level)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update experience")
	}
	if rows != 1 {
		return errors.New(errors.ErrCodeInternalError, fmt.Sprintf("failed to update experience: character %s not found", c.Key()))
	}

	c.Experience = experience
	c.Level = level
	return nil
}

// SetActive makes key the only active character of its user. Siblings are
// deactivated first so the one-active-character index is never violated;
// a failed activation relies on the transaction rolling back.
func (l *CharacterLedger) SetActive(tx store.Characters, key models.CharacterKey) error {
	if err := tx.DeactivateOthers(key); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to deactivate other characters")
	}
	rows, err := tx.ActivateCharacter(key)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to activate character")
	}
	if rows == 0 {
		return errors.New(errors.ErrCodeNotFound, fmt.Sprintf("no character named %q that can be activated", key.Name))
	}
	return nil
}
