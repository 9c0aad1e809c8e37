package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/plumekit/plume/models"
)

// CategoryService manages the category taxonomy. Name and slug uniqueness is
// a business rule here, so conflicts surface to the caller instead of being
// absorbed.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// List returns all categories ordered by name.
func (s *CategoryService) List() ([]models.Category, error) {
	var cats []models.Category
	err := s.db.Order("name ASC").Find(&cats).Error
	return cats, err
}

// Get loads a category by id.
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	var cat models.Category
	if err := s.db.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

// Create stores a category, rejecting duplicate names or slugs. The
// pre-check keeps the common case friendly; the unique indexes catch races.
func (s *CategoryService) Create(name, slug, description, color string) (*models.Category, error) {
	var cnt int64
	err := s.db.Model(&models.Category{}).
		Where("name = ? OR slug = ?", name, slug).
		Count(&cnt).Error
	if err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrCategoryExists
	}
	if color == "" {
		color = "#3498db"
	}
	cat := models.Category{Name: name, Slug: slug, Description: description, Color: color}
	if err := s.db.Create(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return &cat, nil
}

// Delete removes a category and its post assignments.
func (s *CategoryService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.PostCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
