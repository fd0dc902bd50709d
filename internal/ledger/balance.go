package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/circles/internal/models"
)

// BalanceWriter applies an atomic increment to a balance row, creating it
// when absent. Implementations must not read-modify-write in memory.
type BalanceWriter interface {
	CreditBalance(ctx context.Context, holder models.Holder, currency string, amount int64) error
}

// Credit adds amount to the holder's balance in currency.
//
// It performs no deduplication: callers guarantee that each refunded
// participation is credited at most once.
func Credit(ctx context.Context, w BalanceWriter, holder models.Holder, currency string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit must be positive, got %d", ErrInvalidAmount, amount)
	}
	if holder.ID == "" {
		return fmt.Errorf("%w: balance holder required", ErrInvalidAmount)
	}
	currency = NormalizeCurrency(currency)
	if currency == "" {
		return fmt.Errorf("%w: currency required", ErrInvalidAmount)
	}
	return w.CreditBalance(ctx, holder, currency, amount)
}

// NormalizeCurrency upper-cases and trims an ISO 4217 code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
