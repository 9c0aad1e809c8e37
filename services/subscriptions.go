package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/plumekit/plume/models"
)

// SubscriptionService manages follow relationships between users.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Toggle flips the follow state and returns the resulting membership.
// Following yourself is rejected outright. A duplicate-key race on insert
// means the target state was already reached.
func (s *SubscriptionService) Toggle(subscriberID, targetUserID uint) (bool, error) {
	if subscriberID == targetUserID {
		return false, ErrSelfSubscription
	}
	res := s.db.Where("subscriber_id = ? AND target_user_id = ?", subscriberID, targetUserID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	err := s.db.Create(&models.Subscription{SubscriberID: subscriberID, TargetUserID: targetUserID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsSubscribed reports whether subscriber follows target.
func (s *SubscriptionService) IsSubscribed(subscriberID, targetUserID uint) (bool, error) {
	var cnt int64
	err := s.db.Model(&models.Subscription{}).
		Where("subscriber_id = ? AND target_user_id = ?", subscriberID, targetUserID).
		Count(&cnt).Error
	return cnt > 0, err
}

// ListFollowed returns the users the subscriber follows, most recently
// followed first.
func (s *SubscriptionService) ListFollowed(subscriberID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.target_user_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Order("subscriptions.subscribed_at DESC").
		Find(&users).Error
	return users, err
}
