package models

import "time"

// Post publication states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Post represents a blog article. PublishedAt is stamped exactly once, on the
// first transition into the published state.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	Title       string     `gorm:"size:500;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Excerpt     string     `gorm:"type:text" json:"excerpt"`
	Status      string     `gorm:"size:20;not null;default:'draft';index" json:"status"`
	ViewCount   int        `gorm:"not null;default:0" json:"view_count"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`

	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// ValidStatus reports whether the given value is a known post status.
func ValidStatus(status string) bool {
	return status == StatusDraft || status == StatusPublished || status == StatusArchived
}
