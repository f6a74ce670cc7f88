package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gameofbones/gameofbones/internal/models"
)

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// @Summary List users
// @Description List all users (admin only)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserDetail
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Router /api/users [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	userDetails := make([]*UserDetail, len(users))
	for i := range users {
		userDetails[i] = newUserDetail(&users[i])
	}

	respond(c, http.StatusOK, "", userDetails)
}

// findUser loads the user named by the :id parameter, answering 400/404/500 on failure
func (s *Server) findUser(c *gin.Context) (*models.User, bool) {
	id, ok := parseID(c)
	if !ok {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("bad id"), "Invalid user ID")
		return nil, false
	}

	var user models.User
	if err := models.FindByID(s.db, id, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "User not found")
			return nil, false
		}
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return nil, false
	}
	return &user, true
}

// @Summary Change user role
// @Description Promote or demote a user (admin only, cannot change self)
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body UpdateRoleRequest true "Role"
// @Success 200 {object} UserDetail
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/users/{id}/role [patch]
func (s *Server) updateUserRole(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, validationMessage(err))
		return
	}

	user, ok := s.findUser(c)
	if !ok {
		return
	}

	// Prevent an admin from locking themselves out
	if user.ID == sessionData.UserID {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("self role change"), "Cannot change your own role")
		return
	}

	if err := s.db.Model(user).Update("role", req.Role).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to update role")
		return
	}
	user.Role = req.Role

	s.logger.Info().
		Uint("user_id", user.ID).
		Str("role", user.Role).
		Uint("changed_by", sessionData.UserID).
		Msg("User role changed")

	respond(c, http.StatusOK, "Role updated", newUserDetail(user))
}

// @Summary Delete user
// @Description Delete a user with their posts and likes (admin only, cannot delete self)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	user, ok := s.findUser(c)
	if !ok {
		return
	}

	// Prevent deleting self
	if user.ID == sessionData.UserID {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("self delete"), "Cannot delete yourself")
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		posts := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", user.ID)
		if err := tx.Where("user_id = ? OR post_id IN (?)", user.ID, posts).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to delete user")
		return
	}

	s.logger.Info().
		Uint("user_id", user.ID).
		Uint("deleted_by", sessionData.UserID).
		Msg("User deleted")

	respond(c, http.StatusOK, "User deleted", nil)
}
