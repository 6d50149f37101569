// Package ledger implements reward ledger arithmetic: accruing named pool
// variables from formulas and drawing them down. Values is plain data; the
// caller persists it in the same transaction as any related updates.
package ledger

import (
	"math"
	"sort"

	"github.com/mroshb/economy_bot/internal/formula"
)

// PreviousSuffix is appended to a variable name to bind its stored value
// in the formula scope.
const PreviousSuffix = "Previous"

// Scope variable names available to every formula.
const (
	VarRewardedXP         = "rewardedXp"
	VarRewardedGold       = "rewardedGold"
	VarExtraValue         = "extraValue"
	VarNumberOfCharacters = "numberOfCharacters"
	VarAverageLevel       = "averageLevel"
	VarAverageXP          = "averageXp"
)

// Values maps a pool variable to its amount. A missing key means 0 and no
// stored value is ever zero, negative or non-finite.
type Values map[string]float64

// FromMap copies m and prunes it.
func FromMap(m map[string]float64) Values {
	v := make(Values, len(m))
	for k, x := range m {
		v[k] = x
	}
	v.Prune()
	return v
}

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

func keep(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}

// Prune deletes every value that is not a finite positive number.
func (v Values) Prune() {
	for k, x := range v {
		if !keep(x) {
			delete(v, k)
		}
	}
}

// Value sums the named variables. Absent names count as 0.
func (v Values) Value(vars []string) float64 {
	total := 0.0
	for _, name := range dedupe(vars) {
		total += v[name]
	}
	return total
}

// CalculateInput carries the grant being accrued.
type CalculateInput struct {
	CharacterLevels []int
	CharacterXPs    []int64
	RewardedXP      float64
	RewardedGold    float64
	ExtraValue      float64
}

// Scope builds the formula scope for in against the current values and the
// variables being computed.
func (v Values) Scope(formulaVars []string, in CalculateInput) map[string]float64 {
	scope := map[string]float64{
		VarRewardedXP:         in.RewardedXP,
		VarRewardedGold:       in.RewardedGold,
		VarExtraValue:         in.ExtraValue,
		VarNumberOfCharacters: float64(len(in.CharacterLevels)),
		VarAverageLevel:       averageInts(in.CharacterLevels),
		VarAverageXP:          averageInt64s(in.CharacterXPs),
	}
	for _, name := range formulaVars {
		scope[name+PreviousSuffix] = v[name]
	}
	return scope
}

// Calculate evaluates every formula and overwrites the matching values.
// Formulas are evaluated against the values as they were before the call,
// so their order does not matter. If any formula fails nothing changes.
func (v Values) Calculate(formulas map[string]string, in CalculateInput) error {
	names := make([]string, 0, len(formulas))
	for name := range formulas {
		names = append(names, name)
	}
	sort.Strings(names)

	scope := v.Scope(names, in)
	results := make(map[string]float64, len(names))
	for _, name := range names {
		x, err := formula.Evaluate(name, formulas[name], scope)
		if err != nil {
			return err
		}
		results[name] = x
	}

	for name, x := range results {
		v[name] = x
	}
	v.Prune()
	return nil
}

// Consume draws amount from vars in the given order. It returns false and
// leaves v untouched when the variables hold less than amount. A zero
// amount always succeeds without changing v; negative or non-finite
// amounts never do.
func (v Values) Consume(amount float64, vars []string) bool {
	if amount == 0 {
		return true
	}
	if !(amount > 0) || math.IsInf(amount, 0) {
		return false
	}
	vars = dedupe(vars)
	if v.Value(vars) < amount {
		return false
	}

	remaining := amount
	for _, name := range vars {
		if remaining <= 0 {
			break
		}
		available, ok := v[name]
		if !ok {
			continue
		}
		if available <= remaining {
			remaining -= available
			v[name] = 0
			continue
		}
		v[name] = available - remaining
		remaining = 0
	}
	v.Prune()
	return true
}

func dedupe(vars []string) []string {
	seen := make(map[string]struct{}, len(vars))
	out := make([]string, 0, len(vars))
	for _, name := range vars {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func averageInts(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}

func averageInt64s(xs []int64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}
