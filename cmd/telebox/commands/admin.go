package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/internal/cli/prompt"
	"github.com/marmos91/telebox/pkg/api/auth"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Records API administration",
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash an admin password for admin.password_hash",
	Long: `Prompt for a password and print its bcrypt hash.

Put the hash in admin.password_hash (or TELEBOX_ADMIN_PASSWORD_HASH) and set
admin.jwt_secret to enable the records API.`,
	Args: cobra.NoArgs,
	RunE: runHashPassword,
}

func init() {
	adminCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := prompt.PasswordWithConfirmation("Password", "Confirm password", auth.MinPasswordLength)
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
