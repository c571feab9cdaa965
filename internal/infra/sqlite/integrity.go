// Ledger invariant verification.
// A non-empty finding list means the store itself has a bug — these are
// fatal/alerting conditions, never user-facing errors.
package sqlite

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
)

// VerifyIntegrity recomputes derived ledger state and reports every invariant
// violation it finds. An empty slice means the ledger is consistent. The
// error return is for operational failures only (the query itself failing).
func (db *DB) VerifyIntegrity() ([]string, error) {
	var findings []string

	// Account totals must equal the sum of their holdings.
	rows, err := db.db.Query(`
		SELECT a.id, a.amount_total, COALESCE(m.amount, '')
		FROM accounts a
		LEFT JOIN credit_map m ON m.account_id = a.id
		ORDER BY a.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var id, total, amount string
		if err := rows.Scan(&id, &total, &amount); err != nil {
			return nil, err
		}
		t, err := parseDec(total)
		if err != nil {
			return nil, err
		}
		totals[id] = t
		if _, ok := sums[id]; !ok {
			sums[id] = decimal.Zero
		}
		if amount != "" {
			a, err := parseDec(amount)
			if err != nil {
				return nil, err
			}
			if a.IsNegative() {
				findings = append(findings, fmt.Sprintf(
					"account %s holds a negative amount %s", id, a))
			}
			sums[id] = sums[id].Add(a)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for id, total := range totals {
		if !total.Equal(sums[id]) {
			findings = append(findings, fmt.Sprintf(
				"account %s amount_total %s drifted from holdings sum %s", id, total, sums[id]))
		}
	}

	// Credit supply: 0 ≤ redeemed ≤ issued, and circulating holdings plus
	// redeemed never exceed the issued amount.
	creditRows, err := db.db.Query(`
		SELECT id, amount_issued, amount_redeemed FROM credits
	`)
	if err != nil {
		return nil, err
	}
	defer creditRows.Close()

	for creditRows.Next() {
		var id, issuedStr, redeemedStr string
		if err := creditRows.Scan(&id, &issuedStr, &redeemedStr); err != nil {
			return nil, err
		}
		issued, err := parseDec(issuedStr)
		if err != nil {
			return nil, err
		}
		redeemed, err := parseDec(redeemedStr)
		if err != nil {
			return nil, err
		}
		if redeemed.IsNegative() || redeemed.GreaterThan(issued) {
			findings = append(findings, fmt.Sprintf(
				"credit %s amount_redeemed %s outside [0, %s]", id, redeemed, issued))
		}
		held, err := db.sumHoldings(id)
		if err != nil {
			return nil, err
		}
		if held.Add(redeemed).GreaterThan(issued) {
			findings = append(findings, fmt.Sprintf(
				"credit %s circulation %s + redeemed %s exceeds issued %s",
				id, held, redeemed, issued))
		}
	}
	if err := creditRows.Err(); err != nil {
		return nil, err
	}

	return findings, nil
}

// sumHoldings adds up every holding of a credit with exact decimal math.
func (db *DB) sumHoldings(creditID string) (decimal.Decimal, error) {
	rows, err := db.db.Query(`
		SELECT amount FROM credit_map WHERE credit_id = ?
	`, creditID)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		a, err := parseDec(amount)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(a)
	}
	return sum, rows.Err()
}

// MustBeConsistent is a debugging guard: it panics on the first invariant
// violation. Intended for tests and the verify CLI command, not hot paths.
func (db *DB) MustBeConsistent() {
	findings, err := db.VerifyIntegrity()
	if err != nil {
		panic(fmt.Errorf("verify integrity: %w", err))
	}
	if len(findings) > 0 {
		panic(fmt.Errorf("%w: %s", domain.ErrInvariant, findings[0]))
	}
}
