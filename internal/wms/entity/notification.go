package entity

import "time"

// Notification is one inbox entry for one user. Fan-out to a role creates
// one row per member.
type Notification struct {
	ID      string `json:"id" gorm:"primaryKey;size:36"`
	UserID  string `json:"user_id" gorm:"size:36;not null;index"`
	Message string `json:"message" gorm:"type:text;not null"`
	Status  string `json:"status" gorm:"size:10;default:Unread;index"`

	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

const (
	NotificationUnread = "Unread"
	NotificationRead   = "Read"
)
