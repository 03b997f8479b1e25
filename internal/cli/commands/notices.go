package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/client"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/guard"
)

// NewNoticesCmd creates the notices command
func NewNoticesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notices",
		Short: "List notices visible to your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotices()
		},
	}

	return cmd
}

func runNotices() error {
	apiClient, store, err := newPortal()
	if err != nil {
		return err
	}

	store.Resume()
	phase, sess := store.State()

	if guard.Decide(phase, sess) != guard.Render {
		fmt.Println("Not logged in. Run 'sssms login' first.")
		return nil
	}

	notices, err := apiClient.Notices(context.Background())
	if err != nil {
		var authErr *client.AuthError
		if errors.As(err, &authErr) {
			// The server rejected a credential the local decode accepted;
			// drop it so the next command starts clean
			store.Logout(context.Background())
			return fmt.Errorf("session expired. Run 'sssms login' again")
		}
		return err
	}

	if len(notices) == 0 {
		fmt.Println("No notices.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POSTED\tAUDIENCE\tTITLE")
	fmt.Fprintln(w, "──────\t────────\t─────")

	for _, notice := range notices {
		fmt.Fprintf(w, "%s\t%s\t%s\n", notice.CreatedAt, notice.TargetRole, notice.Title)
	}

	w.Flush()

	return nil
}
