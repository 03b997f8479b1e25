package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/auth"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenRevoked      = errors.New("token revoked")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

// GetSessionData returns the authenticated session attached by the JWT middleware
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates bearer tokens and attaches the session.
// A nil revocation list skips the logout denylist check.
func JWTAuthMiddleware(db *gorm.DB, revocations *auth.RevocationList, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		token, err := extractBearerToken(authHeader)
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		// Validate JWT token
		claims, err := auth.ValidateToken(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// Reject tokens explicitly logged out
		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail closed: an unreachable denylist must not admit a
				// possibly revoked token
				respondWithError(c, log, http.StatusUnauthorized, err, "Unable to verify token")
				return
			}
			if revoked {
				respondWithError(c, log, http.StatusUnauthorized, ErrTokenRevoked, "Token has been revoked")
				return
			}
		}

		// Verify user still exists and is active
		var user models.User
		if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}
		if !user.IsActive {
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "Account disabled")
			return
		}

		// Set session data. Role comes from the database, not the token, so
		// role changes take effect without waiting for token expiry.
		sessionData := &auth.SessionData{
			UserID:      user.ID,
			Email:       user.Email,
			Role:        user.Role,
			DisplayName: claims.Name,
			TokenID:     claims.ID,
		}
		setSession(c, sessionData)

		c.Next()
	}
}

// RequireRole gates a route group to the given role set. 401 when no
// session is attached, 403 when the role does not match.
func RequireRole(log zerolog.Logger, allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.HasRole(allowed...) {
			respondWithError(c, log, http.StatusForbidden, errors.New("role not allowed"), "Access denied for role")
			return
		}

		c.Next()
	}
}
