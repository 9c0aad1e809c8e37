package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/plumekit/plume/models"
)

// UpdateUserInput holds optional profile changes; nil fields keep the
// current value.
type UpdateUserInput struct {
	Email     *string
	Username  *string
	Bio       *string
	AvatarURL *string
}

// UserService manages accounts and the user search path. User searches share
// the ResultCache contract with post searches but use their own instance, so
// post mutations do not evict user lookups.
type UserService struct {
	db    *gorm.DB
	cache ResultCache
}

func NewUserService(db *gorm.DB, cache ResultCache) *UserService {
	return &UserService{db: db, cache: cache}
}

// Get loads a user by id.
func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail loads a user by email, returning ErrNotFound when absent.
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername loads a user by username, returning ErrNotFound when absent.
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create registers an account with the default role. Uniqueness conflicts
// surface as ErrEmailTaken/ErrUsernameTaken.
func (s *UserService) Create(email, username, passwordHash string) (*models.User, error) {
	if _, err := s.GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.GetByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.cache.Clear()
	return &user, nil
}

// Update applies profile changes with uniqueness checks on email and
// username.
func (s *UserService) Update(user *models.User, in UpdateUserInput) (*models.User, error) {
	if in.Email != nil && *in.Email != user.Email {
		if _, err := s.GetByEmail(*in.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		user.Email = *in.Email
	}
	if in.Username != nil && *in.Username != user.Username {
		if _, err := s.GetByUsername(*in.Username); err == nil {
			return nil, ErrUsernameTaken
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		user.Username = *in.Username
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	s.cache.Clear()
	return user, nil
}

// List returns users newest first.
func (s *UserService) List(limit, offset int) ([]models.User, error) {
	var users []models.User
	err := s.db.Order("id DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Search matches username or email by substring, caching the identifier
// list per (query, limit, offset) signature.
func (s *UserService) Search(q string, limit, offset int) ([]models.User, error) {
	key := fmt.Sprintf("%s|%d|%d", strings.ToLower(strings.TrimSpace(q)), limit, offset)
	if ids, ok := s.cache.Get(key); ok {
		if len(ids) == 0 {
			return []models.User{}, nil
		}
		var users []models.User
		err := s.db.Where("id IN ?", ids).Order("id DESC").Find(&users).Error
		return users, err
	}

	like := "%" + strings.TrimSpace(q) + "%"
	var users []models.User
	err := s.db.Where("username LIKE ? OR email LIKE ?", like, like).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	s.cache.Put(key, ids)
	return users, nil
}

// Delete removes an account and everything attached to it.
func (s *UserService) Delete(user *models.User) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subscriber_id = ? OR target_user_id = ?", user.ID, user.ID).
			Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return err
	}
	s.cache.Clear()
	return nil
}
