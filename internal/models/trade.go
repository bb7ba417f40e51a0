package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade is one row of the append-only order audit log
type Trade struct {
	ID        string              `json:"id" gorm:"primaryKey;size:36"`
	UserID    string              `json:"user_id" gorm:"index;not null"`
	BotID     string              `json:"bot_id" gorm:"index;not null"`
	Symbol    string              `json:"symbol"`
	Side      string              `json:"side"`
	OrderType string              `json:"order_type"`
	Quantity  decimal.Decimal     `json:"quantity" gorm:"type:numeric"`
	Price     decimal.NullDecimal `json:"price" gorm:"type:numeric"`
	OrderID   string              `json:"order_id"`
	Status    string              `json:"status"`
	TestMode  bool                `json:"test_mode"`
	CreatedAt time.Time           `json:"created_at"`
}

// BeforeCreate assigns a uuid when none is set
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
