package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/guard"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami()
		},
	}

	return cmd
}

func runWhoami() error {
	_, store, err := newPortal()
	if err != nil {
		return err
	}

	store.Resume()
	phase, sess := store.State()

	if guard.Decide(phase, sess) != guard.Render {
		fmt.Println("Not logged in. Run 'sssms login' first.")
		return nil
	}

	fmt.Printf("User:    %s\n", sess.DisplayName)
	fmt.Printf("Email:   %s\n", sess.Email)
	fmt.Printf("Role:    %s\n", sess.Role)
	fmt.Printf("Expires: %s\n", sess.ExpiresAt.Format("2006-01-02 15:04"))

	return nil
}
