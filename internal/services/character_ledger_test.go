package services

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestCharacterLedger_EarnXp(t *testing.T) {
	tests := []struct {
		name      string
		start     int64
		delta     int64
		wantXP    int64
		wantLevel int
	}{
		{"Level up", 250, 100, 350, 2},
		{"Clamped at max", 350000, 10000, models.MaxXP, models.MaxLevel},
		{"Clamped at zero", 100, -500, 0, 1},
		{"Skip levels", 0, 85000, 85000, 11},
		{"Saturates on overflow", 100000, math.MaxInt64, models.MaxXP, models.MaxLevel},
		{"Saturates on underflow", 100000, math.MinInt64, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			key := env.addCharacter("u", "Bob", 0, true)
			env.store.PutCharacter(models.Character{GuildID: key.GuildID, UserID: key.UserID, Name: key.Name, Experience: tt.start, Level: models.LevelFromXP(tt.start)})

			tx, err := env.store.Begin(context.Background(), &sql.TxOptions{Isolation: sql.LevelSerializable})
			if err != nil {
				t.Fatalf("Begin() error = %v", err)
			}
			c, _ := tx.FindCharacter(key.GuildID, key.UserID, key.Name, true)
			if err := NewCharacterLedger().EarnXp(tx, c, tt.delta); err != nil {
				t.Fatalf("EarnXp() error = %v", err)
			}
			if err := tx.Commit(); err != nil {
				t.Fatalf("Commit() error = %v", err)
			}

			stored, _ := env.store.Character(key)
			if stored.Experience != tt.wantXP || stored.Level != tt.wantLevel {
				t.Errorf("stored = %d xp level %d, want %d xp level %d", stored.Experience, stored.Level, tt.wantXP, tt.wantLevel)
			}
			if c.Experience != tt.wantXP || c.Level != tt.wantLevel {
				t.Errorf("in-memory character not updated: %d/%d", c.Experience, c.Level)
			}
		})
	}
}

func TestCharacterLedger_RejectsSubCentGold(t *testing.T) {
	env := newTestEnv(t)
	key := env.addCharacter("u", "Bob", 100, true)
	l := NewCharacterLedger()

	tx, _ := env.store.Begin(context.Background(), nil)
	defer tx.Rollback()
	if err := l.ChargeAndEscrow(tx, key, decimal.RequireFromString("10.005")); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("ChargeAndEscrow(10.005) error = %v, want %s", err, errors.ErrCodeValidation)
	}
	if err := l.EarnGold(tx, key, decimal.RequireFromString("0.001")); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("EarnGold(0.001) error = %v, want %s", err, errors.ErrCodeValidation)
	}
}

func TestCharacterLedger_MissingCharacter(t *testing.T) {
	env := newTestEnv(t)
	tx, _ := env.store.Begin(context.Background(), nil)
	defer tx.Rollback()

	missing := models.CharacterKey{GuildID: testGuild, UserID: "ghost", Name: "Nobody"}
	err := NewCharacterLedger().RefundEscrow(tx, missing, gold(10))
	if errors.CodeOf(err) != errors.ErrCodeInternalError {
		t.Errorf("RefundEscrow(missing) error = %v, want INTERNAL_ERROR", err)
	}
}

func TestCharacterLedger_SetActive(t *testing.T) {
	env := newTestEnv(t)
	first := env.addCharacter("u", "First", 0, true)
	second := env.addCharacter("u", "Second", 0, false)
	other := env.addCharacter("someone-else", "Theirs", 0, true)

	tx, _ := env.store.Begin(context.Background(), nil)
	if err := NewCharacterLedger().SetActive(tx, second); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	_ = tx.Commit()

	if c, _ := env.store.Character(first); c.IsActive {
		t.Errorf("First still active")
	}
	if c, _ := env.store.Character(second); !c.IsActive {
		t.Errorf("Second not active")
	}
	if c, _ := env.store.Character(other); !c.IsActive {
		t.Errorf("another user's character was deactivated")
	}
}
