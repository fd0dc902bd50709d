// Package calculator aggregates money movements before they are applied to
// the balance ledger.
package calculator

import (
	"fmt"
	"sort"
	"strings"
)

// Refund is one amount owed back to a member, in minor units.
type Refund struct {
	Source   string // participation the money was paid for
	Currency string
	Amount   int64
}

// CurrencyTotal is the sum of refunds in one currency.
type CurrencyTotal struct {
	Currency string
	Amount   int64
	Sources  []string
}

// AggregateRefunds groups refunds by currency and sums them.
//
// Zero amounts are dropped. Currencies are compared case-insensitively and
// returned upper-cased, sorted by code so that balances are always credited
// in the same order. A source may appear only once; a repeated source means
// a participation would be refunded twice and is rejected.
func AggregateRefunds(refunds []Refund) ([]CurrencyTotal, error) {
	totals := make(map[string]*CurrencyTotal)
	seen := make(map[string]bool, len(refunds))

	for _, r := range refunds {
		if r.Amount < 0 {
			return nil, fmt.Errorf("negative refund %d for %s", r.Amount, r.Source)
		}
		if r.Source != "" {
			if seen[r.Source] {
				return nil, fmt.Errorf("duplicate refund for %s", r.Source)
			}
			seen[r.Source] = true
		}
		if r.Amount == 0 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(r.Currency))
		if code == "" {
			return nil, fmt.Errorf("refund for %s has no currency", r.Source)
		}

		t, ok := totals[code]
		if !ok {
			t = &CurrencyTotal{Currency: code}
			totals[code] = t
		}
		t.Amount += r.Amount
		t.Sources = append(t.Sources, r.Source)
	}

	result := make([]CurrencyTotal, 0, len(totals))
	for _, t := range totals {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Currency < result[j].Currency
	})
	return result, nil
}
