package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Author is the public part of a post's author
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Post represents a blog post with optional image and geolocation
type Post struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"image_url,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	Author       Author    `json:"author"`
	LikesCount   int       `json:"likes_count"`
	LikedByMe    bool      `json:"liked_by_me"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PostInput is the create/update request body
type PostInput struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	ImageURL     string   `json:"image_url,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
}

// LikeStatus is returned by the like endpoints
type LikeStatus struct {
	LikesCount int  `json:"likes_count"`
	LikedByMe  bool `json:"liked_by_me"`
}

// ListPosts returns all posts, newest first
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a single post
func (c *Client) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a new post
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/posts", in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces a post's editable fields
func (c *Client) UpdatePost(ctx context.Context, id int64, in PostInput) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post by ID
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}

// LikePost likes a post as the current user
func (c *Client) LikePost(ctx context.Context, id int64) (*LikeStatus, error) {
	var status LikeStatus
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/like", id), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UnlikePost removes the current user's like
func (c *Client) UnlikePost(ctx context.Context, id int64) (*LikeStatus, error) {
	var status LikeStatus
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d/like", id), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
