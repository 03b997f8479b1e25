// Package nav is presentation only: a static role-keyed menu table. It
// performs no authorization; the route guard is the backstop for any
// entry it shows.
package nav

import "github.com/rush4n/SSSMS-Academic-Portal/internal/models"

// Entry is one menu item. An empty Roles slice means every authenticated
// role sees it.
type Entry struct {
	Title string
	Path  string
	Roles []models.Role
}

var menu = []Entry{
	{Title: "Dashboard", Path: "/dashboard"},
	{Title: "Notices", Path: "/notices"},

	{Title: "Students", Path: "/admin/students", Roles: []models.Role{models.RoleAdmin}},
	{Title: "Faculty", Path: "/admin/faculty", Roles: []models.Role{models.RoleAdmin}},
	{Title: "Subjects", Path: "/admin/subjects", Roles: []models.Role{models.RoleAdmin}},
	{Title: "Allocations", Path: "/admin/allocations", Roles: []models.Role{models.RoleAdmin}},
	{Title: "Fee Ledger", Path: "/admin/fees", Roles: []models.Role{models.RoleAdmin}},
	{Title: "Exam Results", Path: "/admin/exam-results", Roles: []models.Role{models.RoleAdmin}},

	{Title: "My Subjects", Path: "/faculty/subjects", Roles: []models.Role{models.RoleFaculty}},
	{Title: "Attendance", Path: "/faculty/attendance", Roles: []models.Role{models.RoleFaculty}},
	{Title: "Assessments", Path: "/faculty/assessments", Roles: []models.Role{models.RoleFaculty}},
	{Title: "Resources", Path: "/faculty/resources", Roles: []models.Role{models.RoleFaculty}},

	{Title: "My Profile", Path: "/student/profile", Roles: []models.Role{models.RoleStudent}},
	{Title: "My Attendance", Path: "/student/attendance", Roles: []models.Role{models.RoleStudent}},
	{Title: "Report Card", Path: "/student/report-card", Roles: []models.Role{models.RoleStudent}},
	{Title: "My Fees", Path: "/student/fees", Roles: []models.Role{models.RoleStudent}},
	{Title: "Study Material", Path: "/student/resources", Roles: []models.Role{models.RoleStudent}},

	{Title: "Timetable", Path: "/timetable"},
	{Title: "Exam Schedule", Path: "/exams/schedule"},
}

// Visible filters the menu to the entries the given role should see
func Visible(role models.Role) []Entry {
	var entries []Entry
	for _, entry := range menu {
		if len(entry.Roles) == 0 {
			entries = append(entries, entry)
			continue
		}
		for _, allowed := range entry.Roles {
			if role == allowed {
				entries = append(entries, entry)
				break
			}
		}
	}
	return entries
}
