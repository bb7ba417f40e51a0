package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey holds a user's exchange credentials
type APIKey struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"index:idx_api_keys_user_exchange;not null"`
	Exchange  string    `json:"exchange" gorm:"index:idx_api_keys_user_exchange;not null"`
	APIKey    string    `json:"api_key" gorm:"not null"`
	APISecret string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a uuid when none is set
func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
