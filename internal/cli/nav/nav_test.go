package nav

import (
	"testing"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

func titles(entries []Entry) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e.Title] = true
	}
	return set
}

func TestVisible_SharedEntriesForAllRoles(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleFaculty, models.RoleStudent} {
		got := titles(Visible(role))
		for _, title := range []string{"Dashboard", "Notices", "Timetable", "Exam Schedule"} {
			if !got[title] {
				t.Errorf("role %s: missing shared entry %q", role, title)
			}
		}
	}
}

func TestVisible_RoleSections(t *testing.T) {
	admin := titles(Visible(models.RoleAdmin))
	faculty := titles(Visible(models.RoleFaculty))
	student := titles(Visible(models.RoleStudent))

	if !admin["Fee Ledger"] || !admin["Students"] {
		t.Error("admin should see the administration section")
	}
	if admin["My Subjects"] || admin["Report Card"] {
		t.Error("admin should not see faculty or student sections")
	}

	if !faculty["Attendance"] || !faculty["Assessments"] {
		t.Error("faculty should see the teaching section")
	}
	if faculty["Students"] || faculty["My Fees"] {
		t.Error("faculty should not see admin or student sections")
	}

	if !student["My Fees"] || !student["Study Material"] {
		t.Error("student should see the student section")
	}
	if student["Exam Results"] || student["Resources"] {
		t.Error("student should not see admin or faculty sections")
	}
}

func TestVisible_PreservesMenuOrder(t *testing.T) {
	entries := Visible(models.RoleStudent)
	if len(entries) == 0 {
		t.Fatal("expected entries")
	}
	if entries[0].Title != "Dashboard" {
		t.Errorf("expected Dashboard first, got %q", entries[0].Title)
	}
	if entries[len(entries)-1].Title != "Exam Schedule" {
		t.Errorf("expected Exam Schedule last, got %q", entries[len(entries)-1].Title)
	}
}
