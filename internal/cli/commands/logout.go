package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}

	return cmd
}

func runLogout() error {
	_, store, err := newPortal()
	if err != nil {
		return err
	}

	// Always effective locally, whatever the server says
	store.Logout(context.Background())

	fmt.Println("✓ Logged out")
	return nil
}
