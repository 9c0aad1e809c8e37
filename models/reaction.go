package models

import "time"

// Reaction kinds.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction is a like or dislike on a post. At most one row per (user, post);
// switching reaction mutates the type in place rather than inserting a
// second row.
type Reaction struct {
	UserID       uint      `gorm:"primaryKey" json:"user_id"`
	PostID       uint      `gorm:"primaryKey" json:"post_id"`
	ReactionType string    `gorm:"size:10;not null" json:"reaction_type"`
	ReactedAt    time.Time `gorm:"autoCreateTime" json:"reacted_at"`
}

// ValidReaction reports whether the given value is a known reaction type.
func ValidReaction(t string) bool {
	return t == ReactionLike || t == ReactionDislike
}
