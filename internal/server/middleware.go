package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gameofbones/gameofbones/internal/auth"
	"github.com/gameofbones/gameofbones/internal/models"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

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

// RequestIDMiddleware tags every request with a ULID, reusing the caller's
// X-Request-ID when one is sent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// authFailure is why a bearer token was not accepted
type authFailure struct {
	status  int
	err     error
	message string
}

// authenticate resolves the bearer token to a session. The role is read from
// the database so role changes apply to tokens already issued.
func authenticate(c *gin.Context, db *gorm.DB, tokens *auth.TokenManager) (*auth.SessionData, *authFailure) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
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
		return nil, &authFailure{http.StatusUnauthorized, err, message}
	}

	claims, err := tokens.ValidateToken(token)
	if err != nil {
		return nil, &authFailure{http.StatusUnauthorized, err, "Invalid or expired token"}
	}

	var user models.User
	if err := models.FindByID(db, claims.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &authFailure{http.StatusUnauthorized, ErrUserNotFound, "User not found"}
		}
		return nil, &authFailure{http.StatusInternalServerError, err, "Internal server error"}
	}

	return &auth.SessionData{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Claims: claims,
	}, nil
}

// JWTAuthMiddleware rejects requests without a valid bearer token
func JWTAuthMiddleware(db *gorm.DB, tokens *auth.TokenManager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, failure := authenticate(c, db, tokens)
		if failure != nil {
			respondWithError(c, log, failure.status, failure.err, failure.message)
			return
		}
		setSession(c, sessionData)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches a session when a valid token is sent and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware(db *gorm.DB, tokens *auth.TokenManager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		sessionData, failure := authenticate(c, db, tokens)
		if failure != nil {
			log.Debug().Err(failure.err).Str("request_id", requestID(c)).Msg("Ignoring invalid token on public route")
			c.Next()
			return
		}
		setSession(c, sessionData)
		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsAdmin() {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}
