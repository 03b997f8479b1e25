package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Role is the closed set of portal roles. A user holds exactly one.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleFaculty Role = "FACULTY"
	RoleStudent Role = "STUDENT"
)

// ParseRole validates a role string against the closed enumeration
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return Role(value), true
	default:
		return "", false
	}
}

// DefaultTotalFee is applied to fee records when no override is configured
const DefaultTotalFee = 150000

// Config represents the global configuration for the single-tenant deployment
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	// Authentication configuration
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first setup (64 hex chars)

	// Fee defaults applied when a student is enrolled
	DefaultTotalFee float64 `json:"default_total_fee" gorm:"not null;default:150000"`

	// Last completed overdue-fee scan (set by the worker)
	LastFeeScanAt *time.Time `json:"last_fee_scan_at"`
}

// User represents a portal account (admin, faculty member or student)
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"type:varchar(16);not null"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StudentProfile holds the academic identity attached to a STUDENT user
type StudentProfile struct {
	BaseModel
	UserID      string     `json:"user_id" gorm:"unique;not null"`
	PRN         string     `json:"prn" gorm:"unique;not null"` // Permanent registration number
	FirstName   string     `json:"first_name"`
	MiddleName  string     `json:"middle_name"`
	LastName    string     `json:"last_name"`
	DOB         *time.Time `json:"dob"`
	PhoneNumber string     `json:"phone_number"`
	Address     string     `json:"address"`
	Department  string     `json:"department"`
	CurrentYear int        `json:"current_year" gorm:"not null;default:1"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// FullName returns the student's display name
func (s *StudentProfile) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// FacultyProfile holds the identity attached to a FACULTY user
type FacultyProfile struct {
	BaseModel
	UserID        string     `json:"user_id" gorm:"unique;not null"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Designation   string     `json:"designation"` // e.g. "Assistant Professor", "HOD"
	Department    string     `json:"department"`
	Qualification string     `json:"qualification"`
	PhoneNumber   string     `json:"phone_number"`
	JoiningDate   *time.Time `json:"joining_date"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// FullName returns the faculty member's display name
func (f *FacultyProfile) FullName() string {
	if f.LastName == "" {
		return f.FirstName
	}
	return f.FirstName + " " + f.LastName
}

// Subject represents a taught course unit
type Subject struct {
	BaseModel
	Name       string `json:"name" gorm:"not null"`
	Code       string `json:"code" gorm:"unique;not null"`
	Department string `json:"department"`
	Year       int    `json:"year" gorm:"not null;default:1"` // Academic year the subject belongs to (1..5)
	Semester   int    `json:"semester" gorm:"not null;default:1"`
}

// SubjectAllocation links a faculty member to a subject they teach
type SubjectAllocation struct {
	BaseModel
	FacultyID string `json:"faculty_id" gorm:"not null;uniqueIndex:idx_alloc_faculty_subject"`
	SubjectID string `json:"subject_id" gorm:"not null;uniqueIndex:idx_alloc_faculty_subject"`

	Faculty *FacultyProfile `json:"faculty,omitempty" gorm:"foreignKey:FacultyID;references:ID;constraint:OnDelete:CASCADE"`
	Subject *Subject        `json:"subject,omitempty" gorm:"foreignKey:SubjectID;references:ID;constraint:OnDelete:CASCADE"`
}

// AttendanceSession represents one taught lecture for an allocation
type AttendanceSession struct {
	BaseModel
	AllocationID string    `json:"allocation_id" gorm:"not null"`
	Date         time.Time `json:"date" gorm:"not null"`

	Allocation *SubjectAllocation `json:"allocation,omitempty" gorm:"foreignKey:AllocationID;references:ID;constraint:OnDelete:CASCADE"`
	Records    []AttendanceRecord `json:"records,omitempty" gorm:"foreignKey:SessionID"`
}

// AttendanceStatus is the per-student verdict for one session
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// AttendanceRecord marks one student present or absent for a session
type AttendanceRecord struct {
	BaseModel
	SessionID string           `json:"session_id" gorm:"not null;uniqueIndex:idx_attendance_session_student"`
	StudentID string           `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_session_student"`
	Status    AttendanceStatus `json:"status" gorm:"type:varchar(8);not null"`

	Session *AttendanceSession `json:"session,omitempty" gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
	Student *StudentProfile    `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE"`
}

// ExamType classifies an assessment for report-card aggregation
type ExamType string

const (
	ExamUnitTest1  ExamType = "UNIT_TEST_1"
	ExamUnitTest2  ExamType = "UNIT_TEST_2"
	ExamUnitTest3  ExamType = "UNIT_TEST_3"
	ExamAssignment ExamType = "ASSIGNMENT"
	ExamTheoryESE  ExamType = "THEORY_ESE"
)

// Assessment represents one graded exercise for an allocation
type Assessment struct {
	BaseModel
	AllocationID string    `json:"allocation_id" gorm:"not null"`
	Title        string    `json:"title" gorm:"not null"`
	Type         ExamType  `json:"type" gorm:"type:varchar(16);not null"`
	MaxMarks     float64   `json:"max_marks" gorm:"not null"`
	Date         time.Time `json:"date"`

	Allocation *SubjectAllocation `json:"allocation,omitempty" gorm:"foreignKey:AllocationID;references:ID;constraint:OnDelete:CASCADE"`
	Marks      []StudentMark      `json:"marks,omitempty" gorm:"foreignKey:AssessmentID"`
}

// StudentMark is one student's score in an assessment
type StudentMark struct {
	BaseModel
	AssessmentID  string  `json:"assessment_id" gorm:"not null;uniqueIndex:idx_mark_assessment_student"`
	StudentID     string  `json:"student_id" gorm:"not null;uniqueIndex:idx_mark_assessment_student"`
	MarksObtained float64 `json:"marks_obtained" gorm:"not null"`

	Assessment *Assessment     `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID;references:ID;constraint:OnDelete:CASCADE"`
	Student    *StudentProfile `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE"`
}

// ExamResult is a university result (SGPA) for one exam session
type ExamResult struct {
	BaseModel
	StudentID   string     `json:"student_id" gorm:"not null"`
	SGPA        float64    `json:"sgpa" gorm:"not null"`
	Status      string     `json:"status"` // PASS / FAIL / ATKT
	ExamSession string     `json:"exam_session"`
	ResultDate  *time.Time `json:"result_date"`

	Student *StudentProfile `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE"`
}

// NoticeTarget selects which roles see a notice
type NoticeTarget string

const (
	NoticeTargetAll     NoticeTarget = "ALL"
	NoticeTargetFaculty NoticeTarget = "FACULTY"
	NoticeTargetStudent NoticeTarget = "STUDENT"
)

// Notice is a board entry visible to its target role (admins see everything)
type Notice struct {
	BaseModel
	Title      string       `json:"title" gorm:"not null"`
	Content    string       `json:"content" gorm:"type:text"`
	Attachment string       `json:"attachment"` // Stored file name, optional
	TargetRole NoticeTarget `json:"target_role" gorm:"type:varchar(16);not null;default:ALL"`
	PostedByID string       `json:"posted_by_id" gorm:"not null"`

	PostedBy *User `json:"posted_by,omitempty" gorm:"foreignKey:PostedByID;references:ID;constraint:OnDelete:SET NULL"`
}

// FeeRecord tracks the fee ledger of one student
type FeeRecord struct {
	BaseModel
	StudentID       string     `json:"student_id" gorm:"unique;not null"`
	TotalFee        float64    `json:"total_fee" gorm:"not null"`
	PaidAmount      float64    `json:"paid_amount" gorm:"not null;default:0"`
	LastPaymentDate *time.Time `json:"last_payment_date"`

	Student *StudentProfile `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE"`
}

// Balance returns the outstanding amount
func (f *FeeRecord) Balance() float64 {
	return f.TotalFee - f.PaidAmount
}

// Status derives the ledger status; not persisted
func (f *FeeRecord) Status() string {
	if f.PaidAmount >= f.TotalFee {
		return "PAID"
	}
	return "PENDING"
}

// YearMetadata holds the shared documents of one academic year
type YearMetadata struct {
	BaseModel
	Year             int    `json:"year" gorm:"unique;not null"` // 1..5
	TimetableFile    string `json:"timetable_file"`              // Stored file name
	ExamScheduleFile string `json:"exam_schedule_file"`          // Stored file name
}

// AcademicResource is uploaded study material for an allocation
type AcademicResource struct {
	BaseModel
	AllocationID string `json:"allocation_id" gorm:"not null"`
	Title        string `json:"title" gorm:"not null"`
	FileName     string `json:"file_name" gorm:"not null"` // Stored file name
	ContentType  string `json:"content_type"`

	Allocation *SubjectAllocation `json:"allocation,omitempty" gorm:"foreignKey:AllocationID;references:ID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &Config{}, &StudentProfile{}, &FacultyProfile{},
		&Subject{}, &SubjectAllocation{},
		&AttendanceSession{}, &AttendanceRecord{},
		&Assessment{}, &StudentMark{}, &ExamResult{},
		&Notice{}, &FeeRecord{}, &YearMetadata{}, &AcademicResource{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
