// Package server
//
// @title Academic Portal API
// @version 1.0
// @description Student/faculty management portal API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/attendance"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/auth"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/config"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/fees"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/grading"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	router            *gin.Engine
	db                *gorm.DB
	config            *config.Config
	logger            zerolog.Logger
	validator         *validator.Validate
	asynqClient       *asynq.Client
	revocations       *auth.RevocationList
	attendanceService *attendance.Service
	gradingService    *grading.Service
	feesService       *fees.Service
	storageService    *storage.Service
	version           string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize JWT authentication
	// Load JWT secret from database (auto-generated during first setup)
	var portalConfig models.Config
	if err := db.First(&portalConfig).Error; err == nil {
		// Config exists, use persisted JWT secret
		auth.InitializeJWT(portalConfig.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
	} else {
		// No config yet - first setup hasn't happened
		// JWT will be initialized during setupFirstAdmin
		zlog.Info().Msg("No config found - JWT will be initialized during first setup")
	}

	// Initialize validator
	validate := validator.New()

	// Register custom validators
	validate.RegisterValidation("prn", func(fl validator.FieldLevel) bool {
		// PRNs are uppercase alphanumeric registration numbers
		value := fl.Field().String()
		if value == "" {
			return false
		}
		for _, char := range value {
			if !((char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9')) {
				return false
			}
		}
		return true
	})

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Initialize token revocation list backed by Redis
	revocations := auth.NewRevocationList(redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	}))

	// Initialize file storage for timetables, notices and resources
	storageService, err := storage.NewService(cfg.Storage.UploadDir, zlog)
	if err != nil {
		return nil, err
	}

	// Create server
	server := &Server{
		db:                db,
		config:            cfg,
		logger:            zlog,
		validator:         validate,
		asynqClient:       asynqClient,
		revocations:       revocations,
		attendanceService: attendance.NewService(db, zlog),
		gradingService:    grading.NewService(db, zlog),
		feesService:       fees.NewService(db, zlog),
		storageService:    storageService,
		version:           version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8         // Reduced for SQLite efficiency
		maxIdleConns      = 4         // Reduced proportionally
		connMaxLifetime   = 300       // 5 minutes
		busyTimeout       = 5000      // 5 seconds
		cacheSize         = 10000     // 10MB
		mmapSize          = 134217728 // 128MB
		walAutocheckpoint = 1000      // WAL auto-checkpoint pages
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool settings
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas directly (connection string pragmas may not work with all drivers)
	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",                                      // Enable WAL mode for better concurrency
		"PRAGMA synchronous=NORMAL",                                    // Faster than FULL, still safe with WAL
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint), // Auto-checkpoint WAL file
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
		fmt.Sprintf("PRAGMA mmap_size=%d", mmapSize),
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/setup", s.setupFirstAdmin)
	s.router.POST("/api/auth/login", s.login)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.revocations, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getCurrentUser)
		api.POST("/auth/logout", s.logout)

		// Notices: everyone reads, admins and faculty post
		api.GET("/notices", s.listNotices)
		api.GET("/notices/:id/attachment", s.downloadNoticeAttachment)
		noticeWrite := api.Group("/notices")
		noticeWrite.Use(RequireRole(s.logger, models.RoleAdmin, models.RoleFaculty))
		{
			noticeWrite.POST("", s.createNotice)
			noticeWrite.DELETE("/:id", s.deleteNotice)
		}

		// Timetables and exam schedules: read for all, upload admin only
		api.GET("/timetable/:year", s.getTimetable)
		api.GET("/exams/schedule/:year", s.getExamSchedule)

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(RequireRole(s.logger, models.RoleAdmin))
		{
			admin.POST("/students", s.enrollStudent)
			admin.GET("/students", s.listStudents)
			admin.PUT("/students/:id", s.updateStudent)
			admin.DELETE("/students/:id", s.deleteStudent)

			admin.POST("/faculty", s.enrollFaculty)
			admin.GET("/faculty", s.listFaculty)
			admin.DELETE("/faculty/:id", s.deleteFaculty)

			admin.POST("/subjects", s.createSubject)
			admin.GET("/subjects", s.listSubjects)
			admin.PUT("/subjects/:id", s.updateSubject)
			admin.DELETE("/subjects/:id", s.deleteSubject)

			admin.POST("/allocations", s.createAllocation)
			admin.GET("/allocations", s.listAllocations)
			admin.DELETE("/allocations/:id", s.deleteAllocation)

			admin.GET("/fees", s.listFees)
			admin.PUT("/fees/:studentId", s.setFeeTotal)
			admin.POST("/fees/:studentId/payment", s.recordFeePayment)

			admin.POST("/timetable/:year", s.uploadTimetable)
			admin.POST("/exams/schedule/:year", s.uploadExamSchedule)

			admin.POST("/exam-results", s.publishExamResult)
		}

		// Faculty routes (admins may inspect them too)
		faculty := api.Group("/faculty")
		faculty.Use(RequireRole(s.logger, models.RoleFaculty, models.RoleAdmin))
		{
			faculty.GET("/my-subjects", s.listMySubjects)
			faculty.GET("/allocations/:id/students", s.listAllocationStudents)

			faculty.POST("/attendance", s.markAttendance)
			faculty.GET("/allocations/:id/attendance-report", s.attendanceReport)
			faculty.GET("/allocations/:id/attendance-report/csv", s.attendanceReportCSV)
			faculty.POST("/allocations/:id/attendance-report/export", s.exportAttendanceReport)

			faculty.POST("/assessments", s.createAssessment)
			faculty.GET("/allocations/:id/assessments", s.listAllocationAssessments)

			faculty.POST("/allocations/:id/resources", s.uploadResource)
			faculty.DELETE("/resources/:id", s.deleteResource)
		}

		// Student routes
		student := api.Group("/student")
		student.Use(RequireRole(s.logger, models.RoleStudent))
		{
			student.GET("/profile", s.studentProfile)
			student.GET("/my-attendance", s.myAttendance)
			student.GET("/my-marks", s.myMarks)
			student.GET("/my-results", s.myResults)
			student.GET("/report-card", s.myReportCard)
			student.GET("/my-fees", s.myFees)
			student.GET("/resources", s.listMyResources)
		}

		// Resource downloads are open to any authenticated user; handlers
		// re-check ownership where it matters
		api.GET("/resources/:id/download", s.downloadResource)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "academic-portal-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":" + s.config.HTTP.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:    port,
		Handler: s.router,
		// Generous timeouts for file uploads and CSV exports
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	return nil
}
