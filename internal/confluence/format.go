package confluence

import (
	"fmt"
	"strings"

	"signalforge/internal/domain/models"
)

// FormatSignal renders the fixed message template the bot layer forwards
// verbatim: pair header, direction with emoji, confidence out of 5, joined
// reasons, and the disclaimer line.
func FormatSignal(pair string, dir models.Direction, confidence int, reasons []string) string {
	emoji := "📈"
	if dir == models.DirDown {
		emoji = "📉"
	}
	reason := strings.Join(reasons, ", ")
	if reason == "" {
		reason = "Mixed momentum"
	}
	return fmt.Sprintf(
		"%s\n%s Direction: %s\n💡 Confidence: %d/5\nReason: %s.\n⚠️ This is not financial advice.",
		pair, emoji, dir, confidence, reason,
	)
}

// FormatNoTrade renders the block returned when the session or news filter
// suppresses a signal.
func FormatNoTrade(pair, reason string) string {
	return fmt.Sprintf(
		"%s\n⏸ NO-TRADE\nReason: %s.\n⚠️ This is not financial advice.",
		pair, reason,
	)
}
