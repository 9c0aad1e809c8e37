package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plumekit/plume/models"
)

// SearchIndex maintains the full-text projection of post titles and content.
// On MySQL it searches a FULLTEXT index with relevance ranking; on other
// dialects it degrades to substring matching, ranked only by recency. Index
// and Remove take the database handle of the caller so the projection is
// written inside the same transaction as the post it mirrors.
type SearchIndex struct {
	db     *gorm.DB
	native bool
}

// NewSearchIndex wires the index to db, enabling native full-text search when
// the dialect supports it.
func NewSearchIndex(db *gorm.DB) *SearchIndex {
	return &SearchIndex{db: db, native: db.Dialector.Name() == "mysql"}
}

// Native reports whether relevance-ranked full-text search is available.
func (s *SearchIndex) Native() bool {
	return s.native
}

// EnsureSchema creates the FULLTEXT index if it is missing. No-op on
// dialects without native support.
func (s *SearchIndex) EnsureSchema() error {
	if !s.native {
		return nil
	}
	var cnt int
	err := s.db.Raw(
		"SELECT COUNT(*) FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = 'post_search_entries' AND INDEX_NAME = 'ft_post_search'",
	).Scan(&cnt).Error
	if err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	return s.db.Exec("ALTER TABLE post_search_entries ADD FULLTEXT INDEX ft_post_search (title, content)").Error
}

// Index upserts the projection for a post. Searches issued after this call
// returns see the new text.
func (s *SearchIndex) Index(tx *gorm.DB, postID uint, title, content string) error {
	entry := models.SearchEntry{PostID: postID, Title: title, Content: content}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content"}),
	}).Create(&entry).Error
}

// Remove deletes the projection for a post. Called synchronously with post
// deletion so no orphan entries remain.
func (s *SearchIndex) Remove(tx *gorm.DB, postID uint) error {
	return tx.Where("post_id = ?", postID).Delete(&models.SearchEntry{}).Error
}

// Search returns post identifiers matching query within the given window.
// Native mode ranks by relevance; fallback mode matches substrings and
// returns newest posts first. An empty or all-stopword query yields an empty
// result, never an error.
func (s *SearchIndex) Search(query string, limit, offset int) ([]uint, error) {
	var ids []uint
	if s.native {
		err := s.db.Raw(
			"SELECT post_id FROM post_search_entries WHERE MATCH(title, content) AGAINST (?) ORDER BY MATCH(title, content) AGAINST (?) DESC, post_id DESC LIMIT ? OFFSET ?",
			query, query, limit, offset,
		).Scan(&ids).Error
		return ids, err
	}
	like := "%" + query + "%"
	err := s.db.Model(&models.SearchEntry{}).
		Where("title LIKE ? OR content LIKE ?", like, like).
		Order("post_id DESC").
		Offset(offset).Limit(limit).
		Pluck("post_id", &ids).Error
	return ids, err
}
