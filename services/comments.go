package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/plumekit/plume/models"
)

// CommentService manages replies to posts.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Add stores a comment on an existing post. parentID optionally threads the
// comment under another one; the parent is not required to belong to the
// same post.
func (s *CommentService) Add(postID, authorID uint, content string, parentID *uint) (*models.Comment, error) {
	var cnt int64
	if err := s.db.Model(&models.Post{}).Where("id = ?", postID).Count(&cnt).Error; err != nil {
		return nil, err
	}
	if cnt == 0 {
		return nil, ErrNotFound
	}
	comment := models.Comment{
		PostID:          postID,
		AuthorID:        authorID,
		ParentCommentID: parentID,
		Content:         content,
		IsApproved:      true,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// List returns a post's approved comments, oldest first, with authors
// preloaded.
func (s *CommentService) List(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Preload("Author").
		Where("post_id = ? AND is_approved = ?", postID, true).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// Get loads a comment by id.
func (s *CommentService) Get(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment. Replies keep their parent reference dangling by
// design; they are cleaned up with the post.
func (s *CommentService) Delete(comment *models.Comment) error {
	return s.db.Delete(comment).Error
}
