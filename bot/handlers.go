package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"trade-tracker/ledger"
	"trade-tracker/models"
	"trade-tracker/observability"
	"trade-tracker/services"

	"github.com/shopspring/decimal"
)

func (b *Bot) registerCommands() {
	b.commands = map[string]command{
		"new_spot":   {handler: b.handleNewTrade(models.ClassSpot, "new_spot"), scope: scopeGroup, admin: true},
		"new_future": {handler: b.handleNewTrade(models.ClassFutures, "new_future"), scope: scopeGroup, admin: true},
		"buy":        {handler: b.handleBuy, scope: scopeGroup, admin: true},
		"sell":       {handler: b.handleSell, scope: scopeGroup, admin: true},
		"close":      {handler: b.handleClose, scope: scopeGroup, admin: true},

		"start":             {handler: b.handleStart, scope: scopeAny},
		"portfolio":         {handler: b.handlePortfolio(models.FilterAll), scope: scopePrivate},
		"portfolio_all":     {handler: b.handlePortfolio(models.FilterAll), scope: scopePrivate},
		"portfolio_spot":    {handler: b.handlePortfolio(models.FilterSpot), scope: scopePrivate},
		"portfolio_futures": {handler: b.handlePortfolio(models.FilterFutures), scope: scopePrivate},
	}
}

// handleNewTrade opens a position: /new_spot BTC 118000 0.1
func (b *Bot) handleNewTrade(class models.InstrumentClass, name string) handlerFunc {
	return func(ctx context.Context, msg *services.Message, args []string) reply {
		usage := reply{text: usageMessage(name, "[ticker] [price] [size]")}
		if len(args) != 3 {
			return usage
		}
		price, err := parsePositiveDecimal(args[1])
		if err != nil {
			return usage
		}
		size, err := parsePositiveDecimal(args[2])
		if err != nil {
			return usage
		}

		pos, err := b.engine.Open(ctx, ledger.OpenParams{
			Ticker:     args[0],
			Class:      class,
			EntryPrice: price,
			Size:       size,
			OriginRef:  msg.Link(),
		})
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrAlreadyOpen):
				return reply{text: alreadyOpenMessage(class, tickerArg(args[0]))}
			case errors.Is(err, ledger.ErrInvalidArguments):
				return usage
			default:
				return reply{text: msgInternal}
			}
		}
		return reply{text: openedMessage(pos)}
	}
}

// handleBuy averages into a position: /buy spot BTC 0.5 65000
func (b *Bot) handleBuy(ctx context.Context, msg *services.Message, args []string) reply {
	usage := reply{text: usageMessage("buy", "[type] [ticker] [amount] [price]")}
	if len(args) != 4 {
		return usage
	}
	class, err := models.ParseInstrumentClass(args[0])
	if err != nil {
		return usage
	}
	amount, err := parsePositiveDecimal(args[2])
	if err != nil {
		return usage
	}
	price, err := parsePositiveDecimal(args[3])
	if err != nil {
		return usage
	}

	result, err := b.engine.Accumulate(ctx, class, args[1], amount, price)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			return reply{text: notFoundMessage(class, tickerArg(args[1]))}
		case errors.Is(err, ledger.ErrInvalidArguments):
			return usage
		default:
			return reply{text: msgInternal}
		}
	}
	return reply{text: boughtMessage(result)}
}

// handleSell takes profit on part of a position: /sell spot BTC 50 72000
func (b *Bot) handleSell(ctx context.Context, msg *services.Message, args []string) reply {
	usage := reply{text: usageMessage("sell", "[type] [ticker] [percent] [price]")}
	if len(args) != 4 {
		return usage
	}
	class, err := models.ParseInstrumentClass(args[0])
	if err != nil {
		return usage
	}
	percent, err := strconv.Atoi(args[2])
	if err != nil {
		return usage
	}
	if percent < 1 || percent > 100 {
		return reply{text: msgPercentRange}
	}
	price, err := parsePositiveDecimal(args[3])
	if err != nil {
		return usage
	}

	result, err := b.engine.PartialSell(ctx, class, args[1], percent, price)
	if err != nil {
		var insufficient *ledger.InsufficientRemainingError
		switch {
		case errors.As(err, &insufficient):
			return reply{text: insufficientMessage(insufficient.Requested, insufficient.Remaining)}
		case errors.Is(err, ledger.ErrNotFound):
			return reply{text: notFoundMessage(class, tickerArg(args[1]))}
		case errors.Is(err, ledger.ErrInvalidArguments):
			return usage
		default:
			return reply{text: msgInternal}
		}
	}
	return reply{text: soldMessage(result, price)}
}

// handleClose exits the rest of a position: /close spot BTC 71000
func (b *Bot) handleClose(ctx context.Context, msg *services.Message, args []string) reply {
	usage := reply{text: usageMessage("close", "[type] [ticker] [price]")}
	if len(args) != 3 {
		return usage
	}
	class, err := models.ParseInstrumentClass(args[0])
	if err != nil {
		return usage
	}
	price, err := parsePositiveDecimal(args[2])
	if err != nil {
		return usage
	}

	result, err := b.engine.Close(ctx, class, args[1], price)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			return reply{text: notFoundMessage(class, tickerArg(args[1]))}
		case errors.Is(err, ledger.ErrInvalidArguments):
			return usage
		default:
			return reply{text: msgInternal}
		}
	}
	return reply{text: closedMessage(result)}
}

func (b *Bot) handlePortfolio(filter models.PortfolioFilter) handlerFunc {
	return func(ctx context.Context, msg *services.Message, args []string) reply {
		snapshot, err := b.reporter.Snapshot(ctx, filter)
		if err != nil {
			observability.WithError(err).Error("portfolio snapshot failed")
			return reply{text: msgInternal}
		}
		return reply{text: renderPortfolio(snapshot), disablePreview: true}
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *services.Message, args []string) reply {
	return reply{text: msgWelcome}
}

func parsePositiveDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("must be positive")
	}
	return d, nil
}

// tickerArg echoes a user-supplied ticker back in canonical form.
func tickerArg(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
