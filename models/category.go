package models

import "time"

// Category groups posts by topic. Name and slug are both unique.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:7;default:'#3498db'" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// PostCategory is the post/category join row. The pair is the primary key;
// rows are replaced wholesale when a post's categories change.
type PostCategory struct {
	PostID     uint      `gorm:"primaryKey" json:"post_id"`
	CategoryID uint      `gorm:"primaryKey" json:"category_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`
}
