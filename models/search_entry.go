package models

// SearchEntry is the full-text projection of a post's title and content.
// It is owned by the post: created on insert, rewritten on update, removed on
// delete, always within the same unit of work as the post write.
type SearchEntry struct {
	PostID  uint   `gorm:"primaryKey" json:"post_id"`
	Title   string `gorm:"size:500;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
}

// TableName keeps the projection clearly separated from the posts table.
func (SearchEntry) TableName() string {
	return "post_search_entries"
}
