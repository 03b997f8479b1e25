package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/auth"
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

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role, active bool) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", Role: role, IsActive: active}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// authRouter builds a router with one protected probe route
func authRouter(db *gorm.DB, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlers := []gin.HandlerFunc{JWTAuthMiddleware(db, nil, zerolog.Nop())}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(zerolog.Nop(), roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		session, _ := GetSessionData(c)
		c.JSON(http.StatusOK, gin.H{"role": session.Role})
	})

	router.GET("/probe", handlers...)
	return router
}

func probe(t *testing.T, router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	auth.InitializeJWT("test-secret")
	router := authRouter(testDB(t))

	if w := probe(t, router, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	auth.InitializeJWT("test-secret")
	router := authRouter(testDB(t))

	for _, header := range []string{"Basic abc", "Bearer", "Bearer "} {
		if w := probe(t, router, header); w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestJWTAuthMiddleware_InvalidToken(t *testing.T) {
	auth.InitializeJWT("test-secret")
	router := authRouter(testDB(t))

	if w := probe(t, router, "Bearer not-a-real-token"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	auth.InitializeJWT("test-secret")
	db := testDB(t)
	user := seedUser(t, db, "admin@example.com", models.RoleAdmin, true)

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, "Admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	router := authRouter(db)
	w := probe(t, router, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJWTAuthMiddleware_DeletedUser(t *testing.T) {
	auth.InitializeJWT("test-secret")
	db := testDB(t)
	user := seedUser(t, db, "gone@example.com", models.RoleStudent, true)

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if err := db.Delete(&user).Error; err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}

	router := authRouter(db)
	if w := probe(t, router, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a deleted account, got %d", w.Code)
	}
}

func TestJWTAuthMiddleware_DisabledUser(t *testing.T) {
	auth.InitializeJWT("test-secret")
	db := testDB(t)
	user := seedUser(t, db, "off@example.com", models.RoleFaculty, false)

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	router := authRouter(db)
	if w := probe(t, router, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a disabled account, got %d", w.Code)
	}
}

func TestJWTAuthMiddleware_RoleComesFromDatabase(t *testing.T) {
	auth.InitializeJWT("test-secret")
	db := testDB(t)
	user := seedUser(t, db, "promoted@example.com", models.RoleStudent, true)

	// Token was issued while the user was a student
	token, err := auth.GenerateToken(user.ID, user.Email, models.RoleStudent, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	// The account's role changed since issuance
	if err := db.Model(&user).Update("role", models.RoleFaculty).Error; err != nil {
		t.Fatalf("failed to update role: %v", err)
	}

	router := authRouter(db, models.RoleFaculty)
	if w := probe(t, router, "Bearer "+token); w.Code != http.StatusOK {
		t.Errorf("expected the database role to grant access, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	auth.InitializeJWT("test-secret")
	db := testDB(t)
	student := seedUser(t, db, "s@example.com", models.RoleStudent, true)
	admin := seedUser(t, db, "a@example.com", models.RoleAdmin, true)

	studentToken, err := auth.GenerateToken(student.ID, student.Email, student.Role, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	adminToken, err := auth.GenerateToken(admin.ID, admin.Email, admin.Role, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	router := authRouter(db, models.RoleAdmin)

	if w := probe(t, router, "Bearer "+studentToken); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for wrong role, got %d", w.Code)
	}
	if w := probe(t, router, "Bearer "+adminToken); w.Code != http.StatusOK {
		t.Errorf("expected 200 for allowed role, got %d", w.Code)
	}
}

func TestRequireRole_MultipleAllowed(t *testing.T) {
	auth.InitializeJWT("test-secret")
	db := testDB(t)
	faculty := seedUser(t, db, "f@example.com", models.RoleFaculty, true)

	token, err := auth.GenerateToken(faculty.ID, faculty.Email, faculty.Role, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	router := authRouter(db, models.RoleFaculty, models.RoleAdmin)
	if w := probe(t, router, "Bearer "+token); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
