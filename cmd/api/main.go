package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/baghban/guardian/internal/app/migrations"
	"github.com/baghban/guardian/internal/bootstrap"
	"github.com/baghban/guardian/internal/db"
	"github.com/baghban/guardian/internal/pkg/logger"
	"github.com/baghban/guardian/internal/seed"
	"github.com/baghban/guardian/internal/server"
)

// @title Baghban Guardian API
// @version 1.0
// @description API for the Baghban agricultural consultation platform

// @contact.name API Support
// @contact.email support@baghban.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Baghban Guardian consultation platform",
	Long:  "Backend for the Baghban agricultural platform: consultations between farmers and experts, spray advisories and plant disease diagnosis.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := server.NewServer()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize server")
			return err
		}

		color.Green("Baghban Guardian API starting")
		if err := srv.Run(); err != nil {
			logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
			return err
		}

		logger.Info().Msg("Application finished gracefully.")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
		if err != nil {
			return err
		}

		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return err
		}
		defer database.Close()

		migrator := migrations.NewMigrator(database.Pool)
		if err := migrator.MigrateFromDirectory("migrations"); err != nil {
			color.Red("Migrations failed: %v", err)
			return err
		}

		color.Green("Migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create default demo accounts and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
		if err != nil {
			return err
		}

		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return err
		}
		defer database.Close()

		if err := seed.CreateDefaultData(context.Background(), database.Pool, lgr); err != nil {
			color.Red("Seeding failed: %v", err)
			return err
		}

		color.Green("Default data created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
