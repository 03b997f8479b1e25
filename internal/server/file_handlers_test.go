package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/storage"
)

// fileServer builds a Server with just the pieces the download handlers use
func fileServer(t *testing.T, db *gorm.DB) *Server {
	t.Helper()
	store, err := storage.NewService(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return &Server{db: db, logger: zerolog.Nop(), storageService: store}
}

func TestGetTimetable_ServesStoredFile(t *testing.T) {
	db := testDB(t)
	s := fileServer(t, db)

	stored, err := s.storageService.Save(strings.NewReader("timetable body"), "timetable.pdf")
	if err != nil {
		t.Fatalf("failed to store file: %v", err)
	}
	if err := db.Create(&models.YearMetadata{Year: 2, TimetableFile: stored}).Error; err != nil {
		t.Fatalf("failed to seed metadata: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/timetable/:year", s.getTimetable)

	req := httptest.NewRequest(http.MethodGet, "/api/timetable/2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "timetable body" {
		t.Errorf("unexpected body %q", got)
	}

	// The download name is the original file name, not the stored uuid name
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "timetable.pdf") {
		t.Errorf("expected original name in disposition, got %q", disposition)
	}
	if strings.Contains(disposition, stored) {
		t.Errorf("stored name leaked into disposition: %q", disposition)
	}
}

func TestGetTimetable_NothingUploaded(t *testing.T) {
	db := testDB(t)
	s := fileServer(t, db)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/timetable/:year", s.getTimetable)

	req := httptest.NewRequest(http.MethodGet, "/api/timetable/3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetTimetable_InvalidYear(t *testing.T) {
	db := testDB(t)
	s := fileServer(t, db)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/timetable/:year", s.getTimetable)

	for _, year := range []string{"0", "6", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/timetable/"+year, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("year %q: expected 400, got %d", year, w.Code)
		}
	}
}
