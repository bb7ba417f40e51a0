package models

import (
	"time"
)

// WebhookToken maps an issued webhook token to the bot it triggers
type WebhookToken struct {
	Token     string    `json:"token" gorm:"primaryKey;size:32"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	BotID     string    `json:"bot_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
}

// TableName overrides the table name
func (WebhookToken) TableName() string {
	return "webhooks"
}
