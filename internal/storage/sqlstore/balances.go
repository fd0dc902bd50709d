package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/circles/internal/models"
)

// CreditBalance adds amount to a balance row in one statement, so
// concurrent credits never lose an update.
func (q querier) CreditBalance(ctx context.Context, holder models.Holder, currency string, amount int64) error {
	_, err := q.exec(ctx,
		`INSERT INTO balances (holder_kind, holder_id, currency, amount, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (holder_kind, holder_id, currency)
		 DO UPDATE SET amount = balances.amount + excluded.amount, updated_at = excluded.updated_at`,
		string(holder.Kind), holder.ID, currency, amount, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}
	return nil
}

// ListBalances returns a holder's balances ordered by currency.
func (q querier) ListBalances(ctx context.Context, holder models.Holder) ([]models.Balance, error) {
	var rows []balanceRow
	err := q.selectAll(ctx, &rows,
		`SELECT holder_kind, holder_id, currency, amount, updated_at
		 FROM balances WHERE holder_kind = ? AND holder_id = ?
		 ORDER BY currency`,
		string(holder.Kind), holder.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}

	result := make([]models.Balance, len(rows))
	for i, row := range rows {
		result[i] = row.model()
	}
	return result, nil
}
