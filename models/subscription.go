package models

import "time"

// Subscription records that one user follows another. Self-subscription is
// rejected before storage.
type Subscription struct {
	SubscriberID         uint      `gorm:"primaryKey" json:"subscriber_id"`
	TargetUserID         uint      `gorm:"primaryKey" json:"target_user_id"`
	SubscribedAt         time.Time `gorm:"autoCreateTime" json:"subscribed_at"`
	NotificationsEnabled bool      `gorm:"not null;default:true" json:"notifications_enabled"`
}
