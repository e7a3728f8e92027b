package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/sprintdeck/internal/config"
	"github.com/zulandar/sprintdeck/internal/db"
	"github.com/zulandar/sprintdeck/internal/user"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account management commands",
	}

	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		email      string
		role       string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long:  "Creates an account. Without --password, the password is prompted for without echo.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd, configPath, name, email, role, password)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sprintdeck.yaml", "path to config file")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&role, "role", "member", "role: member or admin")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func runUserCreate(cmd *cobra.Command, configPath, name, email, role, password string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	if password == "" {
		password, err = promptPassword(cmd)
		if err != nil {
			return err
		}
	}

	u, err := user.Create(gdb, user.CreateOpts{
		Name:     name,
		Email:    email,
		Role:     role,
		Password: password,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created %s account %s (%s)\n", u.Role, u.Email, u.ID)
	return nil
}

// promptPassword reads the password twice without echo and checks both
// entries match.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass --password")
	}
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
