package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bot is a stored set of default order parameters for one symbol
type Bot struct {
	ID                string              `json:"id" gorm:"primaryKey;size:36"`
	UserID            string              `json:"user_id" gorm:"index;not null"`
	Name              string              `json:"name"`
	Exchange          string              `json:"exchange" gorm:"default:bybit"`
	Symbol            string              `json:"symbol"`
	DefaultSide       string              `json:"default_side"`       // buy, sell
	DefaultOrderType  string              `json:"default_order_type"` // market, limit
	DefaultQuantity   decimal.NullDecimal `json:"default_quantity" gorm:"type:numeric"`
	DefaultStopLoss   decimal.NullDecimal `json:"default_stop_loss" gorm:"type:numeric"`
	DefaultTakeProfit decimal.NullDecimal `json:"default_take_profit" gorm:"type:numeric"`
	TestMode          bool                `json:"test_mode"`
	TradeCount        int64               `json:"trade_count" gorm:"default:0"`
	LastTradeAt       *time.Time          `json:"last_trade_at"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// BeforeCreate assigns a uuid when none is set
func (b *Bot) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
