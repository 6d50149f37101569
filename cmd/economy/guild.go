package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/mroshb/economy_bot/internal/formula"
	"github.com/mroshb/economy_bot/internal/ledger"
	"github.com/mroshb/economy_bot/internal/models"
	"github.com/mroshb/economy_bot/internal/repositories"
	"github.com/mroshb/economy_bot/pkg/logger"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"
)

// guildFile is the TOML layout of `economy guild import`.
type guildFile struct {
	Guilds []guildEntry `toml:"guild"`
}

type guildEntry struct {
	ID                  string              `toml:"id"`
	Prefix              string              `toml:"prefix"`
	StartingGold        string              `toml:"starting_gold"`
	StartingLevel       int                 `toml:"starting_level"`
	RetirementKeepLevel int                 `toml:"retirement_keep_level"`
	Formulas            map[string]string   `toml:"formulas"`
	Pools               map[string][]string `toml:"pools"`
}

func newGuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guild",
		Short: "Manage guild economy settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.toml>",
		Short: "Validate and store guild settings from a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			configs, err := parseGuildFile(data)
			if err != nil {
				return err
			}

			cfg, db, err := connect()
			if err != nil {
				return err
			}
			repo, err := repositories.NewGuildConfigRepository(db, cfg.GuildCacheSize)
			if err != nil {
				return err
			}
			for _, gc := range configs {
				if err := repo.SaveGuildConfig(cmd.Context(), gc); err != nil {
					return err
				}
			}
			logger.Info("Guild settings imported", "file", args[0], "guilds", len(configs))
			return nil
		},
	})
	return cmd
}

// parseGuildFile decodes and checks every guild in data. Formulas must
// compile and may only reference the grant scope and the previous value of
// a formula variable.
func parseGuildFile(data []byte) ([]*models.GuildConfig, error) {
	var file guildFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid guild file: %w", err)
	}
	if len(file.Guilds) == 0 {
		return nil, fmt.Errorf("invalid guild file: no [[guild]] entries")
	}

	seen := make(map[string]bool, len(file.Guilds))
	configs := make([]*models.GuildConfig, 0, len(file.Guilds))
	for _, g := range file.Guilds {
		if g.ID == "" {
			return nil, fmt.Errorf("guild entry without id")
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("guild %s: listed twice", g.ID)
		}
		seen[g.ID] = true

		cfg, err := g.toConfig()
		if err != nil {
			return nil, fmt.Errorf("guild %s: %w", g.ID, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (g guildEntry) toConfig() (*models.GuildConfig, error) {
	cfg := models.DefaultGuildConfig(g.ID)
	if g.Prefix != "" {
		cfg.Prefix = g.Prefix
	}
	if g.StartingGold != "" {
		gold, err := decimal.NewFromString(g.StartingGold)
		if err != nil || gold.IsNegative() || !models.IsGoldAmount(gold) {
			return nil, fmt.Errorf("starting_gold %q must be a non-negative number with at most %d decimals", g.StartingGold, models.GoldScale)
		}
		cfg.StartingGold = gold
	}
	if g.StartingLevel != 0 {
		if g.StartingLevel < 1 || g.StartingLevel > models.MaxLevel {
			return nil, fmt.Errorf("starting_level must be between 1 and %d", models.MaxLevel)
		}
		cfg.StartingLevel = g.StartingLevel
	}
	if g.RetirementKeepLevel < 0 || g.RetirementKeepLevel > models.MaxLevel {
		return nil, fmt.Errorf("retirement_keep_level must be between 0 and %d", models.MaxLevel)
	}
	cfg.RetirementKeepLevel = g.RetirementKeepLevel

	if err := checkFormulas(g.Formulas); err != nil {
		return nil, err
	}
	for name, vars := range g.Pools {
		if len(vars) == 0 {
			return nil, fmt.Errorf("pool %q has no variables", name)
		}
	}

	formulas := make(map[string]string, len(g.Formulas))
	for k, v := range g.Formulas {
		formulas[k] = v
	}
	pools := make(map[string][]string, len(g.Pools))
	for k, v := range g.Pools {
		pools[k] = append([]string(nil), v...)
	}
	cfg.RewardFormulas = datatypes.NewJSONType(formulas)
	cfg.RewardPools = datatypes.NewJSONType(pools)
	return cfg, nil
}

func checkFormulas(formulas map[string]string) error {
	names := make([]string, 0, len(formulas))
	for name := range formulas {
		names = append(names, name)
	}
	sort.Strings(names)

	known := ledger.Values{}.Scope(names, ledger.CalculateInput{})
	for _, name := range names {
		prog, err := formula.Parse(name, formulas[name])
		if err != nil {
			return err
		}
		for _, v := range prog.Vars() {
			if _, ok := known[v]; !ok {
				return fmt.Errorf("formula %s: unknown variable %q", name, v)
			}
		}
	}
	return nil
}
