package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "sssms",
	Short: "SSSMS - Academic portal from the terminal",
	Long: `SSSMS CLI - Work with the academic portal without a browser.

Log in once and the credential is kept in your OS keychain; every command
resolves your session and role before it talks to the portal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sssms version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
	rootCmd.AddCommand(commands.NewNoticesCmd())
	rootCmd.AddCommand(commands.NewImportSubjectsCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
