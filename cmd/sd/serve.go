package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintdeck/internal/ai"
	"github.com/zulandar/sprintdeck/internal/config"
	"github.com/zulandar/sprintdeck/internal/db"
	"github.com/zulandar/sprintdeck/internal/notify"
	"github.com/zulandar/sprintdeck/internal/server"
	"github.com/zulandar/sprintdeck/internal/workflow"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Sprintdeck API server",
		Long:  "Starts the REST API, the SSE stream, and the notification digest scheduler. Stops cleanly on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sprintdeck.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}

	catalog := workflow.NewCatalog(gdb)
	notifier := notify.New(gdb, cfg.Notify)

	var aiClient *ai.Client
	if cfg.AIAPIKey() != "" {
		aiClient, err = ai.NewClient(cfg)
		if err != nil {
			return err
		}
	} else {
		log.Printf("serve: %s not set, ai endpoints disabled", cfg.AI.APIKeyEnv)
	}

	digest, err := notifier.StartDigest(cfg.Notify.DigestCron)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer digest.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, server.StartOpts{
		DB:       gdb,
		Catalog:  catalog,
		Notifier: notifier,
		AI:       aiClient,
		Port:     cfg.Server.Port,
		Out:      cmd.OutOrStdout(),
	})
}
