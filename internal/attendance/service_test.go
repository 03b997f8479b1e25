package attendance

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// fixture wires one allocation in year 2 with three enrolled students
type fixture struct {
	allocation models.SubjectAllocation
	students   []models.StudentProfile
}

func seedAllocation(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	subject := models.Subject{Name: "Pharmacology I", Code: "PH201", Year: 2, Semester: 3}
	if err := db.Create(&subject).Error; err != nil {
		t.Fatalf("failed to seed subject: %v", err)
	}

	faculty := models.FacultyProfile{FirstName: "Asha", LastName: "Kulkarni", Designation: "Assistant Professor"}
	if err := db.Create(&faculty).Error; err != nil {
		t.Fatalf("failed to seed faculty: %v", err)
	}

	allocation := models.SubjectAllocation{FacultyID: faculty.ID, SubjectID: subject.ID}
	if err := db.Create(&allocation).Error; err != nil {
		t.Fatalf("failed to seed allocation: %v", err)
	}

	students := []models.StudentProfile{
		{PRN: "PRN001", FirstName: "Amit", LastName: "Sharma", CurrentYear: 2},
		{PRN: "PRN002", FirstName: "Bina", LastName: "Patel", CurrentYear: 2},
		{PRN: "PRN003", FirstName: "Chirag", LastName: "Rao", CurrentYear: 2},
	}
	for i := range students {
		students[i].UserID = "user-" + students[i].PRN
		if err := db.Create(&students[i]).Error; err != nil {
			t.Fatalf("failed to seed student: %v", err)
		}
	}

	return fixture{allocation: allocation, students: students}
}

func TestMark_CreatesSessionAndRecords(t *testing.T) {
	db := testDB(t)
	f := seedAllocation(t, db)
	svc := NewService(db, zerolog.Nop())

	err := svc.Mark(f.allocation.ID, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), []Entry{
		{StudentID: f.students[0].ID, Status: models.AttendancePresent},
		{StudentID: f.students[1].ID, Status: models.AttendanceAbsent},
		{StudentID: f.students[2].ID, Status: models.AttendancePresent},
	})
	if err != nil {
		t.Fatalf("failed to mark attendance: %v", err)
	}

	var sessions int64
	db.Model(&models.AttendanceSession{}).Count(&sessions)
	if sessions != 1 {
		t.Errorf("expected 1 session, got %d", sessions)
	}
	var records int64
	db.Model(&models.AttendanceRecord{}).Count(&records)
	if records != 3 {
		t.Errorf("expected 3 records, got %d", records)
	}
}

func TestMark_EmptySheetRejected(t *testing.T) {
	db := testDB(t)
	f := seedAllocation(t, db)
	svc := NewService(db, zerolog.Nop())

	if err := svc.Mark(f.allocation.ID, time.Now(), nil); err == nil {
		t.Fatal("expected empty sheet to be rejected")
	}
}

func TestMark_UnknownAllocation(t *testing.T) {
	db := testDB(t)
	seedAllocation(t, db)
	svc := NewService(db, zerolog.Nop())

	err := svc.Mark("01HZZZZZZZZZZZZZZZZZZZZZZZ", time.Now(), []Entry{
		{StudentID: "s1", Status: models.AttendancePresent},
	})
	if err == nil {
		t.Fatal("expected unknown allocation to be rejected")
	}
}

func TestStudentsForAllocation_FiltersByYear(t *testing.T) {
	db := testDB(t)
	f := seedAllocation(t, db)

	// A student from another year must not appear
	other := models.StudentProfile{UserID: "user-PRN999", PRN: "PRN999", FirstName: "Dev", CurrentYear: 3}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}

	svc := NewService(db, zerolog.Nop())
	students, err := svc.StudentsForAllocation(f.allocation.ID)
	if err != nil {
		t.Fatalf("failed to list students: %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("expected 3 students, got %d", len(students))
	}
	if students[0].PRN != "PRN001" || students[2].PRN != "PRN003" {
		t.Errorf("expected PRN ordering, got %s..%s", students[0].PRN, students[2].PRN)
	}
}

func markDay(t *testing.T, svc *Service, f fixture, day time.Time, present ...int) {
	t.Helper()
	presentSet := map[int]bool{}
	for _, i := range present {
		presentSet[i] = true
	}
	entries := make([]Entry, 0, len(f.students))
	for i, student := range f.students {
		status := models.AttendanceAbsent
		if presentSet[i] {
			status = models.AttendancePresent
		}
		entries = append(entries, Entry{StudentID: student.ID, Status: status})
	}
	if err := svc.Mark(f.allocation.ID, day, entries); err != nil {
		t.Fatalf("failed to mark attendance: %v", err)
	}
}

func TestReport_CountsAndPercentages(t *testing.T) {
	db := testDB(t)
	f := seedAllocation(t, db)
	svc := NewService(db, zerolog.Nop())

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	markDay(t, svc, f, day, 0, 1, 2)
	markDay(t, svc, f, day.AddDate(0, 0, 1), 0, 1)
	markDay(t, svc, f, day.AddDate(0, 0, 2), 0)

	report, err := svc.Report(f.allocation.ID, nil, nil)
	if err != nil {
		t.Fatalf("failed to build report: %v", err)
	}

	if report.TotalSessionsHeld != 3 {
		t.Errorf("expected 3 sessions, got %d", report.TotalSessionsHeld)
	}
	if report.SubjectCode != "PH201" || report.Year != 2 {
		t.Errorf("unexpected subject metadata: %+v", report)
	}
	if report.Range != "Overall" {
		t.Errorf("expected range Overall, got %q", report.Range)
	}
	if len(report.StudentStats) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(report.StudentStats))
	}

	byPRN := map[string]StudentStat{}
	for _, stat := range report.StudentStats {
		byPRN[stat.PRN] = stat
	}
	if got := byPRN["PRN001"]; got.SessionsAttended != 3 || got.Percentage != 100.0 {
		t.Errorf("PRN001: got %+v", got)
	}
	if got := byPRN["PRN002"]; got.SessionsAttended != 2 || got.Percentage != 66.7 {
		t.Errorf("PRN002: got %+v", got)
	}
	if got := byPRN["PRN003"]; got.SessionsAttended != 1 || got.Percentage != 33.3 {
		t.Errorf("PRN003: got %+v", got)
	}
}

func TestReport_DateRange(t *testing.T) {
	db := testDB(t)
	f := seedAllocation(t, db)
	svc := NewService(db, zerolog.Nop())

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	markDay(t, svc, f, day, 0)
	markDay(t, svc, f, day.AddDate(0, 0, 10), 0, 1)

	start := day.AddDate(0, 0, 5)
	report, err := svc.Report(f.allocation.ID, &start, nil)
	if err != nil {
		t.Fatalf("failed to build report: %v", err)
	}
	if report.TotalSessionsHeld != 1 {
		t.Errorf("expected only the later session, got %d", report.TotalSessionsHeld)
	}
	if !strings.HasPrefix(report.Range, "2026-08-06 to") {
		t.Errorf("unexpected range label %q", report.Range)
	}
}

func TestStudentSummary(t *testing.T) {
	db := testDB(t)
	f := seedAllocation(t, db)
	svc := NewService(db, zerolog.Nop())

	// Second subject in the same year with no sessions yet
	quiet := models.Subject{Name: "Pathology", Code: "PH202", Year: 2, Semester: 3}
	if err := db.Create(&quiet).Error; err != nil {
		t.Fatalf("failed to seed subject: %v", err)
	}

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	markDay(t, svc, f, day, 0)
	markDay(t, svc, f, day.AddDate(0, 0, 1), 1)

	summaries, err := svc.StudentSummary(f.students[0].ID)
	if err != nil {
		t.Fatalf("failed to summarize: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(summaries))
	}

	// Sorted by code: PH201 then PH202
	if summaries[0].SubjectCode != "PH201" {
		t.Fatalf("unexpected ordering: %+v", summaries)
	}
	if summaries[0].TotalSessions != 2 || summaries[0].AttendedSessions != 1 || summaries[0].Percentage != 50.0 {
		t.Errorf("PH201: got %+v", summaries[0])
	}
	if summaries[1].TotalSessions != 0 || summaries[1].Percentage != 0 {
		t.Errorf("PH202: got %+v", summaries[1])
	}
}

func TestOverallPercentage(t *testing.T) {
	if got := OverallPercentage(nil); got != 0 {
		t.Errorf("empty summary: got %v", got)
	}
	got := OverallPercentage([]SubjectSummary{
		{Percentage: 50},
		{Percentage: 75.5},
	})
	if got != 62.8 {
		t.Errorf("expected 62.8, got %v", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(0, 0); got != 0 {
		t.Errorf("zero sessions: got %v", got)
	}
	if got := Percentage(2, 3); got != 66.7 {
		t.Errorf("expected 66.7, got %v", got)
	}
	if got := Percentage(3, 3); got != 100.0 {
		t.Errorf("expected 100, got %v", got)
	}
}

func TestWriteCSV(t *testing.T) {
	report := &Report{
		SubjectName:       "Pharmacology I",
		SubjectCode:       "PH201",
		Range:             "Overall",
		TotalSessionsHeld: 3,
		StudentStats: []StudentStat{
			{PRN: "PRN001", StudentName: "Amit Sharma", SessionsAttended: 2, Percentage: 66.7},
		},
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, report); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Subject,Pharmacology I",
		"PRN,Student Name,Attended,Total,Percentage",
		"PRN001,Amit Sharma,2,3,66.7%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("csv missing %q in:\n%s", want, out)
		}
	}
}
