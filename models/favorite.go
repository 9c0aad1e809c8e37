package models

import "time"

// Favorite marks a post as saved by a user. At most one row per (user, post)
// pair; the toggle operation flips existence.
type Favorite struct {
	UserID  uint      `gorm:"primaryKey" json:"user_id"`
	PostID  uint      `gorm:"primaryKey" json:"post_id"`
	SavedAt time.Time `gorm:"autoCreateTime" json:"saved_at"`
}
