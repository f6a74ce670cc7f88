package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gameofbones/gameofbones/internal/auth"
	"github.com/gameofbones/gameofbones/internal/models"
)

var errDuplicate = errors.New("duplicate account")

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanumunder"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a login or register response
type LoginResponse struct {
	Token string      `json:"token"`
	User  *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// @Summary Register
// @Description Creates an account and signs it in. The first account becomes admin.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validator.Struct(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, validationMessage(err))
		return
	}

	// Hash password
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create user")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	var conflict string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ?", req.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			conflict = "Email is already registered"
			return errDuplicate
		}
		if err := tx.Model(&models.User{}).Where("username = ?", req.Username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			conflict = "Username is already taken"
			return errDuplicate
		}

		// Check if any users exist
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			user.Role = models.RoleAdmin
		}

		return tx.Create(user).Error
	})
	if errors.Is(err, errDuplicate) {
		respondWithError(c, s.logger, http.StatusConflict, err, conflict)
		return
	}
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create user")
		return
	}

	// Generate JWT token
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to generate token")
		return
	}

	s.logger.Info().
		Uint("user_id", user.ID).
		Str("username", user.Username).
		Str("role", user.Role).
		Msg("User registered")

	respond(c, http.StatusCreated, "Account created", LoginResponse{
		Token: token,
		User:  newUserDetail(user),
	})
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validator.Struct(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, validationMessage(err))
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid email or password")
			return
		}
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	// Verify password
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		respondWithError(c, s.logger, http.StatusUnauthorized, errors.New("password mismatch"), "Invalid email or password")
		return
	}

	// Generate JWT token
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to generate token")
		return
	}

	s.logger.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	respond(c, http.StatusOK, "Logged in", LoginResponse{
		Token: token,
		User:  newUserDetail(&user),
	})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} Response
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondWithError(c, s.logger, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	respond(c, http.StatusOK, "", gin.H{"user": newUserDetail(&user)})
}

// @Summary Logout
// @Description Revokes the bearer token the request was made with
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondWithError(c, s.logger, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
		return
	}

	s.tokens.Revoke(sessionData.Claims)
	s.logger.Info().Uint("user_id", sessionData.UserID).Msg("User logged out")

	respond(c, http.StatusOK, "Logged out", nil)
}
