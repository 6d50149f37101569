package services

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func rewardGuild(env *testEnv, formulas map[string]string) {
	cfg := models.DefaultGuildConfig(testGuild)
	cfg.RewardFormulas = datatypes.NewJSONType(formulas)
	cfg.RewardPools = datatypes.NewJSONType(map[string][]string{
		"session": {"bonusXp", "xp"},
		"loot":    {"gold"},
	})
	env.store.PutGuildConfig(cfg)
}

func TestGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rewardGuild(env, map[string]string{
		"xp":   "xpPrevious + rewardedXp / numberOfCharacters",
		"gold": "goldPrevious + rewardedGold * 0.5",
	})
	aria := env.addCharacter("u", "Aria", 10, true)
	brom := env.addCharacter("v", "Brom", 0, true)
	env.store.PutDMReward(testGuild, "dm", map[string]float64{"xp": 50})

	res, err := env.rewards.Grant(ctx, GrantInput{
		GuildID:       testGuild,
		GrantorUserID: "dm",
		Recipients:    []Recipient{{"v", "Brom"}, {"u", "Aria"}, {"v", "Brom"}},
		RewardedXP:    400,
		RewardedGold:  gold(100),
	})
	if err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	want := map[string]float64{"xp": 250, "gold": 50}
	if got, _ := env.store.DMRewardValues(testGuild, "dm"); !reflect.DeepEqual(got, want) {
		t.Errorf("ledger = %v, want %v", got, want)
	}
	if len(res.Characters) != 2 {
		t.Errorf("rewarded %d characters, want 2", len(res.Characters))
	}
	env.assertGold(t, aria, 110)
	env.assertGold(t, brom, 100)
	if c, _ := env.store.Character(aria); c.Experience != 400 || c.Level != 2 {
		t.Errorf("Aria = %d xp level %d", c.Experience, c.Level)
	}
}

func TestGrant_Bounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	veteran := models.Character{GuildID: testGuild, UserID: "u", Name: "Aria", Gold: gold(10), Experience: 100000, Level: models.LevelFromXP(100000), IsActive: true}
	env.store.PutCharacter(veteran)
	aria := veteran.Key()

	_, err := env.rewards.Grant(ctx, GrantInput{
		GuildID:       testGuild,
		GrantorUserID: "dm",
		Recipients:    []Recipient{{"u", "Aria"}},
		RewardedGold:  decimal.RequireFromString("0.005"),
	})
	if errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("Grant(0.005 gold) error = %v, want %s", err, errors.ErrCodeValidation)
	}
	env.assertGold(t, aria, 10)

	if _, err := env.rewards.Grant(ctx, GrantInput{
		GuildID:       testGuild,
		GrantorUserID: "dm",
		Recipients:    []Recipient{{"u", "Aria"}},
		RewardedXP:    math.MaxInt64,
	}); err != nil {
		t.Fatalf("Grant(MaxInt64 xp) error = %v", err)
	}
	if c, _ := env.store.Character(aria); c.Experience != models.MaxXP || c.Level != models.MaxLevel {
		t.Errorf("Aria = %d xp level %d, want %d xp level %d", c.Experience, c.Level, models.MaxXP, models.MaxLevel)
	}
}

func TestGrant_FormulaErrorChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	rewardGuild(env, map[string]string{"xp": "max(rewardedXp, 1)"})
	aria := env.addCharacter("u", "Aria", 10, true)

	_, err := env.rewards.Grant(context.Background(), GrantInput{
		GuildID: testGuild, GrantorUserID: "dm", Recipients: []Recipient{{"u", "Aria"}}, RewardedXP: 400, RewardedGold: gold(5),
	})
	if errors.CodeOf(err) != errors.ErrCodeFormula {
		t.Fatalf("Grant() error = %v, want FORMULA_ERROR", err)
	}
	env.assertGold(t, aria, 10)
	if _, ok := env.store.DMRewardValues(testGuild, "dm"); ok {
		t.Errorf("ledger was created despite formula error")
	}
}

func TestGrant_Recipients(t *testing.T) {
	env := newTestEnv(t)
	rewardGuild(env, nil)
	aria := env.addCharacter("u", "Aria", 10, true)

	if _, err := env.rewards.Grant(context.Background(), GrantInput{GuildID: testGuild, GrantorUserID: "dm"}); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("Grant() without recipients error = %v", err)
	}

	_, err := env.rewards.Grant(context.Background(), GrantInput{
		GuildID: testGuild, GrantorUserID: "dm", Recipients: []Recipient{{"u", "Aria"}, {"x", "Ghost"}}, RewardedGold: gold(5),
	})
	if errors.CodeOf(err) != errors.ErrCodeNotFound {
		t.Errorf("Grant() unknown recipient error = %v, want NOT_FOUND", err)
	}
	env.assertGold(t, aria, 10)
}

func TestConsume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.store.PutDMReward(testGuild, "dm", map[string]float64{"xp": 100, "bonusXp": 50})

	ok, err := env.rewards.Consume(ctx, testGuild, "dm", 300, []string{"xp"})
	if err != nil || ok {
		t.Fatalf("Consume(300) = %v, %v, want false", ok, err)
	}
	ok, err = env.rewards.Consume(ctx, testGuild, "dm", 100, []string{"bonusXp", "xp"})
	if err != nil || !ok {
		t.Fatalf("Consume(100) = %v, %v, want true", ok, err)
	}
	if got, _ := env.store.DMRewardValues(testGuild, "dm"); !reflect.DeepEqual(got, map[string]float64{"xp": 50}) {
		t.Errorf("ledger = %v, want {xp: 50}", got)
	}

	ok, err = env.rewards.Consume(ctx, testGuild, "nobody", 1, []string{"xp"})
	if err != nil || ok {
		t.Errorf("Consume() on missing ledger = %v, %v", ok, err)
	}
	if _, err := env.rewards.Consume(ctx, testGuild, "dm", 0, []string{"xp"}); errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("Consume(0) error = %v", err)
	}
}

func TestRedeem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rewardGuild(env, nil)
	aria := env.addCharacter("dm", "Aria", 0, true)
	env.addCharacter("dm", "Alt", 0, false)
	env.store.PutDMReward(testGuild, "dm", map[string]float64{"xp": 100, "bonusXp": 50, "gold": 20.5})

	res, err := env.rewards.Redeem(ctx, RedeemInput{GuildID: testGuild, UserID: "dm", Pool: "session", Amount: gold(120), Kind: RewardKindXP})
	if err != nil {
		t.Fatalf("Redeem(xp) error = %v", err)
	}
	if res.Character.Experience != 120 || res.Remaining != 30 {
		t.Errorf("Redeem(xp) = %d xp, %v remaining", res.Character.Experience, res.Remaining)
	}

	res, err = env.rewards.Redeem(ctx, RedeemInput{GuildID: testGuild, UserID: "dm", Pool: "loot", Amount: decimal.RequireFromString("20.5"), Kind: RewardKindGold, CharName: "Alt"})
	if err != nil {
		t.Fatalf("Redeem(gold) error = %v", err)
	}
	if !res.Character.Gold.Equal(decimal.RequireFromString("20.5")) || res.Character.Name != "Alt" {
		t.Errorf("Redeem(gold) = %+v", res.Character)
	}
	env.assertGold(t, aria, 0)

	if got, _ := env.store.DMRewardValues(testGuild, "dm"); !reflect.DeepEqual(got, map[string]float64{"xp": 30}) {
		t.Errorf("ledger after redeem = %v", got)
	}

	tests := []struct {
		name string
		in   RedeemInput
		code string
	}{
		{"Too much", RedeemInput{Pool: "session", Amount: gold(31), Kind: RewardKindXP}, errors.ErrCodeInsufficientFunds},
		{"Fractional xp", RedeemInput{Pool: "session", Amount: decimal.RequireFromString("1.5"), Kind: RewardKindXP}, errors.ErrCodeValidation},
		{"Unknown pool", RedeemInput{Pool: "nope", Amount: gold(1), Kind: RewardKindXP}, errors.ErrCodeNotFound},
		{"Unknown kind", RedeemInput{Pool: "session", Amount: gold(1), Kind: "mana"}, errors.ErrCodeValidation},
		{"Unknown character", RedeemInput{Pool: "session", Amount: gold(1), Kind: RewardKindXP, CharName: "Ghost"}, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.GuildID, tt.in.UserID = testGuild, "dm"
			if _, err := env.rewards.Redeem(ctx, tt.in); errors.CodeOf(err) != tt.code {
				t.Errorf("Redeem() error = %v, want %s", err, tt.code)
			}
		})
	}
	if got, _ := env.store.DMRewardValues(testGuild, "dm"); !reflect.DeepEqual(got, map[string]float64{"xp": 30}) {
		t.Errorf("failed redeems changed the ledger: %v", got)
	}
}

func TestRewards(t *testing.T) {
	env := newTestEnv(t)
	rewardGuild(env, nil)
	env.store.PutDMReward(testGuild, "dm", map[string]float64{"xp": 100, "bonusXp": 50})

	summary, err := env.rewards.Rewards(context.Background(), testGuild, "dm")
	if err != nil {
		t.Fatalf("Rewards() error = %v", err)
	}
	want := []PoolBalance{{Name: "session", Available: 150}}
	if !reflect.DeepEqual(summary.Pools, want) {
		t.Errorf("Pools = %+v, want %+v", summary.Pools, want)
	}
}
