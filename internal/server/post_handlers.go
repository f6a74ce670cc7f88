package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gameofbones/gameofbones/internal/auth"
	"github.com/gameofbones/gameofbones/internal/models"
)

// PostRequest is the create/update body. Update replaces every field, so an
// omitted image or location clears it.
type PostRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Content      string   `json:"content" validate:"required"`
	ImageURL     string   `json:"image_url" validate:"omitempty,url"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	LocationName string   `json:"location_name" validate:"max=120"`
}

// AuthorDetail is the public part of a post's author
type AuthorDetail struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// PostDetail represents a post returned in responses
type PostDetail struct {
	ID           uint         `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	ImageURL     string       `json:"image_url,omitempty"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	LocationName string       `json:"location_name,omitempty"`
	Author       AuthorDetail `json:"author"`
	LikesCount   int          `json:"likes_count"`
	LikedByMe    bool         `json:"liked_by_me"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// LikeResponse is returned by the like endpoints
type LikeResponse struct {
	LikesCount int  `json:"likes_count"`
	LikedByMe  bool `json:"liked_by_me"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func viewerID(c *gin.Context) uint {
	if sessionData, ok := GetSessionData(c); ok {
		return sessionData.UserID
	}
	return 0
}

// bindPost decodes and validates a post body, answering the request on failure
func (s *Server) bindPost(c *gin.Context) (*PostRequest, bool) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Invalid request body")
		return nil, false
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	req.LocationName = strings.TrimSpace(req.LocationName)

	if err := s.validator.Struct(&req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, validationMessage(err))
		return nil, false
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("partial coordinates"),
			"Validation failed: latitude and longitude must be set together")
		return nil, false
	}
	return &req, true
}

// postDetails loads like counts and the viewer's likes for posts in two queries
func (s *Server) postDetails(posts []models.Post, viewer uint) ([]PostDetail, error) {
	if len(posts) == 0 {
		return []PostDetail{}, nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var counts []struct {
		PostID uint
		Count  int
	}
	if err := s.db.Model(&models.Like{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	countByPost := make(map[uint]int, len(counts))
	for _, row := range counts {
		countByPost[row.PostID] = row.Count
	}

	liked := make(map[uint]bool)
	if viewer != 0 {
		var likedIDs []uint
		if err := s.db.Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", viewer, ids).
			Pluck("post_id", &likedIDs).Error; err != nil {
			return nil, err
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	details := make([]PostDetail, len(posts))
	for i, p := range posts {
		details[i] = PostDetail{
			ID:           p.ID,
			Title:        p.Title,
			Content:      p.Content,
			ImageURL:     p.ImageURL,
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
			LocationName: p.LocationName,
			Author:       AuthorDetail{ID: p.Author.ID, Username: p.Author.Username},
			LikesCount:   countByPost[p.ID],
			LikedByMe:    liked[p.ID],
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		}
	}
	return details, nil
}

func (s *Server) postDetail(post *models.Post, viewer uint) (*PostDetail, error) {
	details, err := s.postDetails([]models.Post{*post}, viewer)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// findPost loads a post with its author, answering 404/500 on failure
func (s *Server) findPost(c *gin.Context) (*models.Post, bool) {
	id, ok := parseID(c)
	if !ok {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("bad id"), "Invalid post ID")
		return nil, false
	}

	var post models.Post
	if err := models.FindByIDWithPreload(s.db, id, &post, "Author"); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "Post not found")
			return nil, false
		}
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return nil, false
	}
	return &post, true
}

func canModify(sessionData *auth.SessionData, post *models.Post) bool {
	return sessionData.IsAdmin() || sessionData.UserID == post.AuthorID
}

// @Summary List posts
// @Description All posts, newest first
// @Tags posts
// @Produce json
// @Success 200 {array} PostDetail
// @Router /api/posts [get]
func (s *Server) listPosts(c *gin.Context) {
	var posts []models.Post
	if err := s.db.Preload("Author").Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list posts")
		return
	}

	details, err := s.postDetails(posts, viewerID(c))
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list posts")
		return
	}

	respond(c, http.StatusOK, "", details)
}

// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostDetail
// @Failure 404 {object} Response
// @Router /api/posts/{id} [get]
func (s *Server) getPost(c *gin.Context) {
	post, ok := s.findPost(c)
	if !ok {
		return
	}

	detail, err := s.postDetail(post, viewerID(c))
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	respond(c, http.StatusOK, "", detail)
}

// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostRequest true "Post"
// @Success 201 {object} PostDetail
// @Failure 400 {object} Response
// @Router /api/posts [post]
func (s *Server) createPost(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	req, ok := s.bindPost(c)
	if !ok {
		return
	}

	post := &models.Post{
		Title:        req.Title,
		Content:      req.Content,
		ImageURL:     req.ImageURL,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationName: req.LocationName,
		AuthorID:     sessionData.UserID,
	}
	if err := s.db.Create(post).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create post")
		return
	}
	if err := s.db.First(&post.Author, sessionData.UserID).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	s.logger.Info().Uint("post_id", post.ID).Uint("author_id", post.AuthorID).Msg("Post created")

	detail, err := s.postDetail(post, sessionData.UserID)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}
	respond(c, http.StatusCreated, "Post created", detail)
}

// @Summary Update post
// @Description Replaces a post's editable fields (author or admin)
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body PostRequest true "Post"
// @Success 200 {object} PostDetail
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Router /api/posts/{id} [put]
func (s *Server) updatePost(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	post, ok := s.findPost(c)
	if !ok {
		return
	}
	if !canModify(sessionData, post) {
		respondWithError(c, s.logger, http.StatusForbidden, errors.New("not author"), "You can only edit your own posts")
		return
	}

	req, ok := s.bindPost(c)
	if !ok {
		return
	}

	// Map updates so cleared fields are written as NULL/empty
	updates := map[string]any{
		"title":         req.Title,
		"content":       req.Content,
		"image_url":     req.ImageURL,
		"latitude":      req.Latitude,
		"longitude":     req.Longitude,
		"location_name": req.LocationName,
	}
	if err := s.db.Model(post).Updates(updates).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to update post")
		return
	}
	post.Title, post.Content, post.ImageURL = req.Title, req.Content, req.ImageURL
	post.Latitude, post.Longitude, post.LocationName = req.Latitude, req.Longitude, req.LocationName

	s.logger.Info().Uint("post_id", post.ID).Uint("updated_by", sessionData.UserID).Msg("Post updated")

	detail, err := s.postDetail(post, sessionData.UserID)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}
	respond(c, http.StatusOK, "Post updated", detail)
}

// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} Response
// @Failure 403 {object} Response
// @Failure 404 {object} Response
// @Router /api/posts/{id} [delete]
func (s *Server) deletePost(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	post, ok := s.findPost(c)
	if !ok {
		return
	}
	if !canModify(sessionData, post) {
		respondWithError(c, s.logger, http.StatusForbidden, errors.New("not author"), "You can only delete your own posts")
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to delete post")
		return
	}

	s.logger.Info().Uint("post_id", post.ID).Uint("deleted_by", sessionData.UserID).Msg("Post deleted")

	respond(c, http.StatusOK, "Post deleted", nil)
}

// @Summary Like post
// @Description Idempotent: liking twice keeps one like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} LikeResponse
// @Router /api/posts/{id}/like [post]
func (s *Server) likePost(c *gin.Context) {
	s.setLike(c, true)
}

// @Summary Unlike post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} LikeResponse
// @Router /api/posts/{id}/like [delete]
func (s *Server) unlikePost(c *gin.Context) {
	s.setLike(c, false)
}

func (s *Server) setLike(c *gin.Context, like bool) {
	sessionData, _ := GetSessionData(c)

	post, ok := s.findPost(c)
	if !ok {
		return
	}

	var err error
	if like {
		var existing int64
		err = s.db.Model(&models.Like{}).
			Where("user_id = ? AND post_id = ?", sessionData.UserID, post.ID).
			Count(&existing).Error
		if err == nil && existing == 0 {
			err = s.db.Create(&models.Like{UserID: sessionData.UserID, PostID: post.ID}).Error
		}
	} else {
		err = s.db.Where("user_id = ? AND post_id = ?", sessionData.UserID, post.ID).
			Delete(&models.Like{}).Error
	}
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to update like")
		return
	}

	detail, err := s.postDetail(post, sessionData.UserID)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}
	respond(c, http.StatusOK, "", LikeResponse{LikesCount: detail.LikesCount, LikedByMe: detail.LikedByMe})
}
