package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/client"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/guard"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// subjectsFile is the YAML shape consumed by the import command
type subjectsFile struct {
	Subjects []struct {
		Name       string `yaml:"name"`
		Code       string `yaml:"code"`
		Department string `yaml:"department"`
		Year       int    `yaml:"year"`
		Semester   int    `yaml:"semester"`
	} `yaml:"subjects"`
}

// NewImportSubjectsCmd creates the import-subjects command
func NewImportSubjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-subjects <file.yaml>",
		Short: "Bulk-register subjects from a YAML file (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportSubjects(args[0])
		},
	}

	return cmd
}

func runImportSubjects(path string) error {
	apiClient, store, err := newPortal()
	if err != nil {
		return err
	}

	store.Resume()
	phase, sess := store.State()

	switch guard.Decide(phase, sess, models.RoleAdmin) {
	case guard.Render:
	case guard.RedirectToLogin:
		return fmt.Errorf("not logged in. Run 'sssms login' first")
	case guard.RedirectToUnauthorized:
		return fmt.Errorf("importing subjects requires an admin account")
	default:
		return fmt.Errorf("session not resolved")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file subjectsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(file.Subjects) == 0 {
		return fmt.Errorf("no subjects found in %s", path)
	}

	imported := 0
	for _, subject := range file.Subjects {
		fmt.Printf("Importing %s (%s)... ", subject.Name, subject.Code)

		err := apiClient.CreateSubject(context.Background(), client.Subject{
			Name:       subject.Name,
			Code:       subject.Code,
			Department: subject.Department,
			Year:       subject.Year,
			Semester:   subject.Semester,
		})
		if err != nil {
			fmt.Printf("failed: %v\n", err)
			continue
		}

		fmt.Println("done")
		imported++
	}

	fmt.Printf("\nImported %d of %d subjects\n", imported, len(file.Subjects))

	return nil
}
