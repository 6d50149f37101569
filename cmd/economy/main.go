package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/economy_bot/internal/config"
	"github.com/mroshb/economy_bot/internal/database"
	"github.com/mroshb/economy_bot/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init()
	defer logger.Sync()

	root := &cobra.Command{
		Use:          "economy",
		Short:        "Guild economy engine: characters, auctions and reward ledgers",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newGuildCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads the configuration and opens the database.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			return nil, nil, err
		}
		logger.Info("Production security validation passed")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			return database.AutoMigrate(db)
		},
	}
}
