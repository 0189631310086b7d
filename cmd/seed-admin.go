package cmd

import (
	"fmt"

	"github.com/jon4hz/humanorai/internal/config"
	"github.com/spf13/cobra"
)

var seedAdminCmdFlags struct {
	Name     string
	Email    string
	Password string
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the administrator account",
	Long: `Create an administrator account with email and password login.

Values not given as flags are taken from the admin section of the config file.
Nothing happens if a user with that email already exists.`,
	RunE: seedAdmin,
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedAdminCmdFlags.Name, "name", "", "Display name of the administrator")
	seedAdminCmd.Flags().StringVar(&seedAdminCmdFlags.Email, "email", "", "Email address of the administrator")
	seedAdminCmd.Flags().StringVar(&seedAdminCmdFlags.Password, "password", "", "Password of the administrator")

	rootCmd.AddCommand(seedAdminCmd)
}

func seedAdmin(cmd *cobra.Command, _ []string) error {
	cfg, engine, err := loadEngine()
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	admin := config.AdminConfig{}
	if cfg.Admin != nil {
		admin = *cfg.Admin
	}
	if seedAdminCmdFlags.Name != "" {
		admin.Name = seedAdminCmdFlags.Name
	}
	if seedAdminCmdFlags.Email != "" {
		admin.Email = seedAdminCmdFlags.Email
	}
	if seedAdminCmdFlags.Password != "" {
		admin.Password = seedAdminCmdFlags.Password
	}

	created, err := engine.EnsureAdmin(cmd.Context(), &admin)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	if !created {
		fmt.Printf("A user with the email %s already exists.\n", admin.Email)
		return nil
	}

	fmt.Printf("Created administrator %s.\n", admin.Email)
	return nil
}
