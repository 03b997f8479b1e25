package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/auth"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/client"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/session"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password, serverURL)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SSSMS_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SSSMS_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL, remembered for later commands")

	return cmd
}

func runLogin(email, password, serverURL string) error {
	// Check for environment variables (useful for scripting)
	if email == "" {
		email = os.Getenv("SSSMS_EMAIL")
	}
	if password == "" {
		password = os.Getenv("SSSMS_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or SSSMS_EMAIL env var)")
	}

	// Remember the server for every later command
	if serverURL != "" {
		if err := userconfig.SetServerURL(serverURL); err != nil {
			return fmt.Errorf("failed to save server URL: %w", err)
		}
	} else {
		var err error
		serverURL, err = resolveServer()
		if err != nil {
			return err
		}
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or SSSMS_PASSWORD env var)")
		}
	}

	apiClient := client.New(serverURL, keyringSource{server: serverURL})
	store := session.NewStore(apiClient, auth.Default, serverURL)

	fmt.Printf("Logging in to %s...\n", serverURL)

	sess, err := store.Login(context.Background(), email, password)
	if err != nil {
		if errors.Is(err, session.ErrServerUnreachable) {
			return fmt.Errorf("server unreachable: check the URL and your connection")
		}
		if errors.Is(err, session.ErrInvalidCredentials) {
			return fmt.Errorf("invalid email or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", sess.DisplayName, sess.Email)
	fmt.Printf("  Role: %s\n", sess.Role)

	return nil
}
