package models

import (
	"time"

	"gorm.io/gorm"
)

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BaseModel provides the auto-increment ID and timestamps for all models
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// User represents an account
type User struct {
	BaseModel
	Username     string `json:"username" gorm:"type:varchar(30);uniqueIndex;not null"`
	Email        string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         string `json:"role" gorm:"type:varchar(10);not null;default:user"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Post is a blog entry with an optional image and location
type Post struct {
	BaseModel
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Title        string    `json:"title" gorm:"type:varchar(200);not null"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	ImageURL     string    `json:"image_url,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	LocationName string    `json:"location_name,omitempty" gorm:"type:varchar(120)"`
	AuthorID     uint      `json:"-" gorm:"index;not null"`
	Author       User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Likes        []Like    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Like records that a user liked a post. A user likes a post at most once.
type Like struct {
	BaseModel
	UserID uint `json:"user_id" gorm:"uniqueIndex:idx_like_user_post;not null"`
	PostID uint `json:"post_id" gorm:"uniqueIndex:idx_like_user_post;index;not null"`
	User   User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &Post{}, &Like{},
	}

	return db.AutoMigrate(models...)
}

// FindByID finds a record by primary key
func FindByID[T any](db *gorm.DB, id uint, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id uint, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
