package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/guard"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/nav"
)

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Show the portal menu for your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash()
		},
	}

	return cmd
}

func runDash() error {
	_, store, err := newPortal()
	if err != nil {
		return err
	}

	store.Resume()
	phase, sess := store.State()

	switch guard.Decide(phase, sess) {
	case guard.Render:
	case guard.RedirectToLogin:
		fmt.Println("Not logged in. Run 'sssms login' first.")
		return nil
	default:
		return fmt.Errorf("session not resolved")
	}

	fmt.Printf("Portal menu for %s (%s):\n\n", sess.DisplayName, sess.Role)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tPATH")
	fmt.Fprintln(w, "───────\t────")

	for _, entry := range nav.Visible(sess.Role) {
		fmt.Fprintf(w, "%s\t%s\n", entry.Title, entry.Path)
	}

	w.Flush()

	fmt.Println("\nLog out with: sssms logout")

	return nil
}
