package models

import "time"

// Comment represents a reply to a post. ParentCommentID optionally points at
// another comment, forming a tree; the storage layer does not force the
// parent to live on the same post.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"index;not null" json:"post_id"`
	AuthorID        uint      `gorm:"index;not null" json:"author_id"`
	ParentCommentID *uint     `gorm:"index" json:"parent_comment_id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	IsApproved      bool      `gorm:"not null;default:true" json:"is_approved"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Author User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}
