package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteService defines the price oracle contract. An unavailable quote is
// an expected result value, not an error.
type QuoteService interface {
	Quote(ctx context.Context, ticker string) (price decimal.Decimal, ok bool)
}

// TelegramAPI defines the Bot API operations the bot loop depends on
type TelegramAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, disablePreview bool) error
}

// Compile-time interface verification
var _ QuoteService = (*CoinGeckoService)(nil)
var _ TelegramAPI = (*TelegramService)(nil)
