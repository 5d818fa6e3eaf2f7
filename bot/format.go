package bot

import (
	"fmt"
	"strings"

	"trade-tracker/ledger"
	"trade-tracker/models"

	"github.com/shopspring/decimal"
)

const (
	msgGroupOnly    = "Please use trade management commands in the main channel."
	msgPrivateOnly  = "This command is only available in a private message with me."
	msgAdminOnly    = "Sorry, this command is for the admin only."
	msgInternal     = "⚠️ Something went wrong. Please try again."
	msgNoPositions  = "The admin has no open positions right now. 🤷‍♂️"
	msgNoneMatching = "No matching open positions found. 🤷‍♂️"
	msgPercentRange = "❌ Percentage must be between 1 and 100."

	msgWelcome = "👋 Welcome to the Admin Trade Tracker!\n\n" +
		"I help track the admin's crypto trades.\n" +
		"To see the current portfolio, send me one of these commands:\n" +
		"🔹 /portfolio_all - View all open positions\n" +
		"🔹 /portfolio_spot - View only Spot positions\n" +
		"🔹 /portfolio_futures - View only Futures positions"
)

// formatMoney renders a dollar amount with thousands separators, e.g.
// $118,000.00.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func formatPercent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// formatSignedPercent always shows the sign, e.g. +12.50% or -3.20%.
func formatSignedPercent(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

func usageMessage(command, args string) string {
	return fmt.Sprintf("❌ Invalid format. Use: /%s %s", command, args)
}

func openedMessage(pos *models.Position) string {
	return fmt.Sprintf("✅ New %s trade opened for $%s.\nEntry Price: %s\nSize: %s",
		pos.Class, pos.Ticker, formatMoney(pos.AvgEntryPrice), pos.TotalSize)
}

func alreadyOpenMessage(class models.InstrumentClass, ticker string) string {
	return fmt.Sprintf("⚠️ A %s trade for $%s is already open.", class, ticker)
}

func notFoundMessage(class models.InstrumentClass, ticker string) string {
	return fmt.Sprintf("🤷 No open %s trade for $%s.", class, ticker)
}

func boughtMessage(result *ledger.AccumulateResult) string {
	return fmt.Sprintf("🟢 Bought more $%s (%s).\nNew Average Entry: %s\nNew Total Size: %s",
		result.Position.Ticker, result.Position.Class, formatMoney(result.NewAvgPrice), result.NewTotalSize)
}

func soldMessage(result *ledger.SellResult, exitPrice decimal.Decimal) string {
	if result.Closed() {
		return fmt.Sprintf("💰 Closed final part of $%s at %s for a ~%s profit. Position is now fully closed.",
			result.Position.Ticker, formatMoney(exitPrice), formatPercent(result.PnLPercent))
	}
	return fmt.Sprintf("💰 Sold %d%% of $%s at %s for a ~%s profit.\n%d%% of the position remains open.",
		result.PercentSold, result.Position.Ticker, formatMoney(exitPrice),
		formatPercent(result.PnLPercent), result.RemainingPercent)
}

func insufficientMessage(requested, remaining int) string {
	return fmt.Sprintf("❌ Cannot sell %d%%. Only %d%% remaining.", requested, remaining)
}

func closedMessage(result *ledger.CloseResult) string {
	return fmt.Sprintf("❌ Trade Closed for $%s (%s).\nClosed at: %s\nFinal PNL: %s",
		result.Position.Ticker, result.Position.Class,
		formatMoney(result.ExitPrice), formatPercent(result.PnLPercent))
}

// renderPortfolio builds the portfolio reply. The snapshot's OpenTotal
// covers the whole book, so an empty book and an empty filtered group
// read differently.
func renderPortfolio(snapshot *models.PortfolioSnapshot) string {
	if snapshot.OpenTotal == 0 {
		return msgNoPositions
	}

	var parts []string

	if len(snapshot.Spot) > 0 {
		parts = append(parts, "--- 🟢 Admin's Open Spot Positions 🟢 ---")
		for _, v := range snapshot.Spot {
			parts = append(parts, renderValuation(v, true))
		}
	} else if snapshot.Filter == models.FilterSpot {
		parts = append(parts, "No open Spot positions found.")
	}

	if len(snapshot.Futures) > 0 {
		parts = append(parts, "\n--- 🔵 Admin's Open Futures Positions 🔵 ---")
		for _, v := range snapshot.Futures {
			parts = append(parts, renderValuation(v, false))
		}
	} else if snapshot.Filter == models.FilterFutures {
		parts = append(parts, "No open Futures positions found.")
	}

	if len(parts) == 0 {
		return msgNoneMatching
	}
	return strings.Join(parts, "\n\n")
}

func renderValuation(v models.Valuation, withRemaining bool) string {
	pnl := "N/A"
	price := "Price Error"
	emoji := "⚠️"
	if v.Priced {
		pnl = formatSignedPercent(v.PnLPercent)
		price = formatMoney(v.CurrentPrice)
		if v.PnLPercent.IsNegative() {
			emoji = "📉"
		} else {
			emoji = "📈"
		}
	}

	coin := fmt.Sprintf("%s Coin: $%s", emoji, v.Position.Ticker)
	if withRemaining {
		coin = fmt.Sprintf("%s (%d%% Remaining)", coin, v.Position.RemainingPercent)
	}

	lines := []string{
		coin,
		fmt.Sprintf("   Entry: %s (Avg)", formatMoney(v.Position.AvgEntryPrice)),
		fmt.Sprintf("   Current: %s", price),
		fmt.Sprintf("   PNL: %s", pnl),
	}
	if v.Position.OriginRef != "" {
		lines = append(lines, fmt.Sprintf("   Post: [Original Call](%s)", v.Position.OriginRef))
	}
	return strings.Join(lines, "\n")
}
