package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories WMS repository set
type Repositories struct {
	PR           *PRRepository
	SyncLog      *SyncLogRepository
	Notification *NotificationRepository
	User         *UserRepository
	Product      *ProductRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		PR:           NewPRRepository(db),
		SyncLog:      NewSyncLogRepository(db),
		Notification: NewNotificationRepository(db),
		User:         NewUserRepository(db),
		Product:      NewProductRepository(db),
	}
}
