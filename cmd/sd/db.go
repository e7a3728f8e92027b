package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintdeck/internal/config"
	"github.com/zulandar/sprintdeck/internal/db"
	"golang.org/x/crypto/bcrypt"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath    string
		adminName     string
		adminEmail    string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Sprintdeck database",
		Long:  "Connects to the configured database, migrates all tables, and seeds the admin account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, adminName, adminEmail, adminPassword)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sprintdeck.yaml", "path to config file")
	cmd.Flags().StringVar(&adminName, "admin-name", "Admin", "seed admin display name")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@localhost", "seed admin email")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "seed admin password (empty leaves the account without one)")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath, adminName, adminEmail, adminPassword string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded config from %s (driver %s)\n", configPath, cfg.Database.Driver)

	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	var hash string
	if adminPassword != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		hash = string(h)
	}
	if err := db.SeedAdmin(gdb, adminName, adminEmail, hash); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded admin account %s\n", adminEmail)

	fmt.Fprintln(out, "\nSprintdeck database initialized successfully.")
	return nil
}
