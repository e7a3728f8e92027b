package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintdeck/internal/config"
	"github.com/zulandar/sprintdeck/internal/db"
	"github.com/zulandar/sprintdeck/internal/ghimport"
	"github.com/zulandar/sprintdeck/internal/project"
	"github.com/zulandar/sprintdeck/internal/workflow"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import issues from external trackers",
	}

	cmd.AddCommand(newImportGitHubCmd())
	return cmd
}

func newImportGitHubCmd() *cobra.Command {
	var (
		configPath string
		owner      string
		repo       string
		projectRef string
		state      string
	)

	cmd := &cobra.Command{
		Use:   "github",
		Short: "Import issues from a GitHub repository",
		Long:  "Imports GitHub issues into a project. Keys are allocated by the project's counter, slotting above any existing keys. The token is read from the environment variable named in the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportGitHub(cmd, configPath, owner, repo, projectRef, state)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sprintdeck.yaml", "path to config file")
	cmd.Flags().StringVar(&owner, "owner", "", "repository owner (required)")
	cmd.Flags().StringVar(&repo, "repo", "", "repository name (required)")
	cmd.Flags().StringVar(&projectRef, "project", "", "target project ID or key (required)")
	cmd.Flags().StringVar(&state, "state", "open", "issue state to import: open, closed, or all")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("repo")
	cmd.MarkFlagRequired("project")
	return cmd
}

func runImportGitHub(cmd *cobra.Command, configPath, owner, repo, projectRef, state string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	p, err := project.Get(gdb, projectRef)
	if err != nil {
		return err
	}

	catalog := workflow.NewCatalog(gdb)
	importer := ghimport.New(ctx, gdb, catalog, cfg.GitHubToken())

	result, err := importer.Import(ctx, owner, repo, p.ID, ghimport.Opts{State: state})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d issues from %s/%s into %s (%d skipped)\n",
		result.Imported, owner, repo, p.Key, result.Skipped)
	return nil
}
