package bot

import (
	"context"
	"time"

	"trade-tracker/ledger"
	"trade-tracker/observability"
	"trade-tracker/portfolio"
	"trade-tracker/services"
)

// pollErrorBackoff is how long the poll loop waits after a failed
// getUpdates call before trying again.
const pollErrorBackoff = 3 * time.Second

// Bot is the long-polling Telegram front end. It owns no trading rules:
// it parses commands, enforces chat and sender guards, and translates
// ledger results into the reply texts users see.
type Bot struct {
	api         services.TelegramAPI
	engine      *ledger.Engine
	reporter    *portfolio.Reporter
	adminID     int64
	pollTimeout time.Duration
	commands    map[string]command
}

// New creates a Bot. An adminID of zero disables the sender check and
// leaves only the chat-type guards in force.
func New(api services.TelegramAPI, engine *ledger.Engine, reporter *portfolio.Reporter, adminID int64, pollTimeout time.Duration) *Bot {
	b := &Bot{
		api:         api,
		engine:      engine,
		reporter:    reporter,
		adminID:     adminID,
		pollTimeout: pollTimeout,
	}
	b.registerCommands()
	return b
}

// Run polls for updates until the context is cancelled. Poll failures are
// logged and retried after a short pause; the offset only advances past
// updates that were actually received, so nothing is skipped.
func (b *Bot) Run(ctx context.Context) error {
	observability.Info("bot polling started", "poll_timeout", b.pollTimeout.String())

	var offset int64
	for {
		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				observability.Info("bot polling stopped")
				return ctx.Err()
			}
			observability.Warn("poll failed", "error", err)
			select {
			case <-ctx.Done():
				observability.Info("bot polling stopped")
				return ctx.Err()
			case <-time.After(pollErrorBackoff):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *services.Update) {
	msg := update.EffectiveMessage()
	if msg == nil {
		return
	}
	b.dispatch(ctx, msg)
}
