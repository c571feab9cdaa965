// Ledger operations: issuance, transfer, redemption, balances, history.
//
// Every mutation validates its preconditions and applies its effects inside
// one immediate transaction, so a failed check aborts before any balance or
// log row changes and no partial mutation is ever observable. The audit row
// is written in the same atomic unit as the balance mutation.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
)

// ─── Issuance ───────────────────────────────────────────────────────────────

// IssueCredit creates a new credit series and credits the issuer's own
// account with the full issued amount. A zero expire time defaults to
// domain.DefaultExpiry past the issue date.
func (db *DB) IssueCredit(issuerEntityID, name string, series int, amount decimal.Decimal, expire time.Time) (*domain.Credit, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var credit *domain.Credit
	err := db.withTx(func(tx *sql.Tx) error {
		issuer, err := getEntityTx(tx, issuerEntityID)
		if err != nil {
			return fmt.Errorf("issuer %s: %w", issuerEntityID, err)
		}
		if !issuer.CanIssue {
			return fmt.Errorf("%q: %w", issuer.Name, domain.ErrIssuanceDenied)
		}
		// The issuance cap applies to vendors only. A vendor whose cap was
		// never configured (zero) issues freely.
		if issuer.Kind == domain.KindVendor && issuer.MaxIssue.IsPositive() &&
			amount.GreaterThan(issuer.MaxIssue) {
			return fmt.Errorf("%s > cap %s: %w", amount, issuer.MaxIssue, domain.ErrCapExceeded)
		}

		account, err := accountForEntityTx(tx, issuerEntityID)
		if err != nil {
			return fmt.Errorf("issuer account: %w", err)
		}

		now := time.Now().UTC()
		if expire.IsZero() {
			expire = now.Add(domain.DefaultExpiry)
		}

		c := &domain.Credit{
			ID:             uuid.NewString(),
			Name:           name,
			IssuerID:       issuer.ID,
			IssuerName:     issuer.Name,
			Series:         series,
			AmountIssued:   amount,
			AmountRedeemed: decimal.Zero,
			DateIssued:     now,
			DateExpire:     expire,
		}

		_, err = tx.Exec(`
			INSERT INTO credits (id, name, issuer_id, series, amount_issued,
				amount_redeemed, date_issued, date_expire)
			VALUES (?, ?, ?, ?, ?, '0', ?, ?)
		`, c.ID, c.Name, c.IssuerID, c.Series, c.AmountIssued.String(),
			fmtTime(c.DateIssued), fmtTime(c.DateExpire))
		if isUniqueViolation(err) {
			return fmt.Errorf("credit %q series %d: %w", name, series, domain.ErrDuplicate)
		}
		if err != nil {
			return err
		}

		if err := adjustHoldingTx(tx, account.ID, c.ID, amount); err != nil {
			return err
		}
		if err := adjustAccountTx(tx, account, amount, now); err != nil {
			return err
		}

		credit = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return credit, nil
}

// ─── Transfer & Redemption ──────────────────────────────────────────────────

// Transfer atomically moves amount of a credit between two accounts, updates
// both account totals, and appends the audit row. Redemption applies only
// when the destination is the issuer's own account; redeemed amounts are
// extinguished — they permanently leave transferable supply — and the
// credit's amount_redeemed and rating advance instead of the destination
// holding.
func (db *DB) Transfer(fromAccountID, toAccountID, creditID string, amount decimal.Decimal, venueID string, redeem bool) (*domain.TransactionLog, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return nil, domain.ErrSelfTransfer
	}

	var logRow *domain.TransactionLog
	err := db.withTx(func(tx *sql.Tx) error {
		credit, err := getCreditTx(tx, creditID)
		if err != nil {
			return fmt.Errorf("credit %s: %w", creditID, err)
		}

		now := time.Now().UTC()
		if credit.Expired(now) {
			return fmt.Errorf("%q expired %s: %w",
				credit.Name, credit.DateExpire.Format(time.RFC3339), domain.ErrExpiredCredit)
		}

		var one int
		if err := tx.QueryRow(`SELECT 1 FROM venues WHERE id = ?`, venueID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("venue %s: %w", venueID, domain.ErrNotFound)
			}
			return err
		}

		from, err := getAccountTx(tx, fromAccountID)
		if err != nil {
			return fmt.Errorf("source account %s: %w", fromAccountID, err)
		}
		to, err := getAccountTx(tx, toAccountID)
		if err != nil {
			return fmt.Errorf("destination account %s: %w", toAccountID, err)
		}

		held, err := holdingTx(tx, from.ID, credit.ID)
		if err != nil {
			return err
		}
		if held.LessThan(amount) {
			return fmt.Errorf("hold %s, need %s: %w", held, amount, domain.ErrInsufficientBalance)
		}

		if err := adjustHoldingTx(tx, from.ID, credit.ID, amount.Neg()); err != nil {
			return err
		}
		if err := adjustAccountTx(tx, from, amount.Neg(), now); err != nil {
			return err
		}

		// The redeem flag only applies when the destination is the issuer's
		// own wallet; otherwise the movement is a plain transfer.
		redeeming := redeem && to.EntityID == credit.IssuerID
		if redeeming {
			newRedeemed := credit.AmountRedeemed.Add(amount)
			if newRedeemed.GreaterThan(credit.AmountIssued) {
				return fmt.Errorf("%w: amount_redeemed %s would exceed amount_issued %s",
					domain.ErrInvariant, newRedeemed, credit.AmountIssued)
			}
			_, err = tx.Exec(`
				UPDATE credits SET amount_redeemed = ?, last_transacted = ? WHERE id = ?
			`, newRedeemed.String(), fmtTime(now), credit.ID)
			if err != nil {
				return err
			}
			credit.AmountRedeemed = newRedeemed
		} else {
			if err := adjustHoldingTx(tx, to.ID, credit.ID, amount); err != nil {
				return err
			}
			if err := adjustAccountTx(tx, to, amount, now); err != nil {
				return err
			}
			_, err = tx.Exec(`
				UPDATE credits SET last_transacted = ? WHERE id = ?
			`, fmtTime(now), credit.ID)
			if err != nil {
				return err
			}
		}

		row := &domain.TransactionLog{
			ID:            uuid.NewString(),
			Timestamp:     now,
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			CreditID:      credit.ID,
			Amount:        amount,
			VenueID:       venueID,
			Redeemed:      redeeming,
			CreditName:    credit.Name,
		}
		tx.QueryRow(`
			SELECT e.name FROM entities e JOIN accounts a ON a.entity_id = e.id WHERE a.id = ?
		`, from.ID).Scan(&row.FromName)
		tx.QueryRow(`
			SELECT e.name FROM entities e JOIN accounts a ON a.entity_id = e.id WHERE a.id = ?
		`, to.ID).Scan(&row.ToName)

		_, err = tx.Exec(`
			INSERT INTO transaction_log (id, timestamp, from_account, to_account,
				credit_id, amount, venue_id, redeemed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, row.ID, now.UnixNano(), row.FromAccountID, row.ToAccountID,
			row.CreditID, row.Amount.String(), row.VenueID, boolInt(row.Redeemed))
		if err != nil {
			return err
		}

		logRow = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logRow, nil
}

// Redeem returns amount of a credit to its issuer, permanently reducing
// transferable supply. Equivalent to a Transfer targeting the issuer's own
// account with redeem set.
func (db *DB) Redeem(accountID, creditID string, amount decimal.Decimal, venueID string) (*domain.TransactionLog, error) {
	var issuerAccountID string
	err := db.db.QueryRow(`
		SELECT a.id FROM accounts a
		JOIN credits c ON c.issuer_id = a.entity_id
		WHERE c.id = ?
	`, creditID).Scan(&issuerAccountID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("credit %s: %w", creditID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return db.Transfer(accountID, issuerAccountID, creditID, amount, venueID, true)
}

// ─── Reads ──────────────────────────────────────────────────────────────────

// Balance returns the amount of one credit held by an account.
func (db *DB) Balance(accountID, creditID string) (decimal.Decimal, error) {
	if _, err := db.GetAccount(accountID); err != nil {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, err)
	}
	var amount string
	err := db.db.QueryRow(`
		SELECT amount FROM credit_map WHERE account_id = ? AND credit_id = ?
	`, accountID, creditID).Scan(&amount)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return parseDec(amount)
}

// Balances returns every non-zero holding of an account, with display names.
func (db *DB) Balances(accountID string) ([]domain.Holding, error) {
	if _, err := db.GetAccount(accountID); err != nil {
		return nil, fmt.Errorf("account %s: %w", accountID, err)
	}
	rows, err := db.db.Query(`
		SELECT m.account_id, m.credit_id, m.amount, c.name, e.name
		FROM credit_map m
		JOIN credits c ON c.id = m.credit_id
		JOIN accounts a ON a.id = m.account_id
		JOIN entities e ON e.id = a.entity_id
		WHERE m.account_id = ?
		ORDER BY c.name, c.series
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Holding
	for rows.Next() {
		var (
			h      domain.Holding
			amount string
		)
		if err := rows.Scan(&h.AccountID, &h.CreditID, &amount, &h.CreditName, &h.HolderName); err != nil {
			return nil, err
		}
		if h.Amount, err = parseDec(amount); err != nil {
			return nil, err
		}
		if h.Amount.IsZero() {
			continue
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// GetCredit retrieves a credit by ID.
func (db *DB) GetCredit(id string) (*domain.Credit, error) {
	return scanCredit(db.db.QueryRow(`
		SELECT c.id, c.name, c.issuer_id, e.name, c.series, c.amount_issued,
			c.amount_redeemed, c.date_issued, c.date_expire, c.last_transacted
		FROM credits c JOIN entities e ON e.id = c.issuer_id
		WHERE c.id = ?
	`, id))
}

// CreditsByIssuer returns every credit issued by an entity, oldest first.
func (db *DB) CreditsByIssuer(entityID string) ([]domain.Credit, error) {
	rows, err := db.db.Query(`
		SELECT c.id, c.name, c.issuer_id, e.name, c.series, c.amount_issued,
			c.amount_redeemed, c.date_issued, c.date_expire, c.last_transacted
		FROM credits c JOIN entities e ON e.id = c.issuer_id
		WHERE c.issuer_id = ?
		ORDER BY c.date_issued
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// History returns the account's transaction log rows, newest first.
// Zero since/until bounds are open.
func (db *DB) History(accountID string, since, until time.Time) ([]domain.TransactionLog, error) {
	if _, err := db.GetAccount(accountID); err != nil {
		return nil, fmt.Errorf("account %s: %w", accountID, err)
	}

	lo := int64(0)
	hi := int64(1<<63 - 1)
	if !since.IsZero() {
		lo = since.UnixNano()
	}
	if !until.IsZero() {
		hi = until.UnixNano()
	}

	rows, err := db.db.Query(`
		SELECT t.id, t.timestamp, t.from_account, t.to_account, t.credit_id,
			t.amount, t.venue_id, t.redeemed,
			COALESCE(c.name, ''), COALESCE(ef.name, ''), COALESCE(et.name, '')
		FROM transaction_log t
		LEFT JOIN credits c ON c.id = t.credit_id
		LEFT JOIN accounts af ON af.id = t.from_account
		LEFT JOIN entities ef ON ef.id = af.entity_id
		LEFT JOIN accounts at ON at.id = t.to_account
		LEFT JOIN entities et ON et.id = at.entity_id
		WHERE (t.from_account = ? OR t.to_account = ?)
			AND t.timestamp >= ? AND t.timestamp <= ?
		ORDER BY t.timestamp DESC, t.rowid DESC
	`, accountID, accountID, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TransactionLog
	for rows.Next() {
		var (
			l        domain.TransactionLog
			ts       int64
			amount   string
			redeemed int
		)
		if err := rows.Scan(&l.ID, &ts, &l.FromAccountID, &l.ToAccountID,
			&l.CreditID, &amount, &l.VenueID, &redeemed,
			&l.CreditName, &l.FromName, &l.ToName); err != nil {
			return nil, err
		}
		l.Timestamp = time.Unix(0, ts).UTC()
		if l.Amount, err = parseDec(amount); err != nil {
			return nil, err
		}
		l.Redeemed = redeemed == 1
		result = append(result, l)
	}
	return result, rows.Err()
}

// ─── Holding Helpers ────────────────────────────────────────────────────────

// holdingTx returns how much of a credit an account holds (zero if no row).
func holdingTx(tx *sql.Tx, accountID, creditID string) (decimal.Decimal, error) {
	var amount string
	err := tx.QueryRow(`
		SELECT amount FROM credit_map WHERE account_id = ? AND credit_id = ?
	`, accountID, creditID).Scan(&amount)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return parseDec(amount)
}

// adjustHoldingTx applies a delta to a holding, creating the row if absent.
// The caller has already checked that the result cannot go negative.
func adjustHoldingTx(tx *sql.Tx, accountID, creditID string, delta decimal.Decimal) error {
	current, err := holdingTx(tx, accountID, creditID)
	if err != nil {
		return err
	}
	next := current.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: holding for account %s would go negative",
			domain.ErrInvariant, accountID)
	}
	_, err = tx.Exec(`
		INSERT INTO credit_map (account_id, credit_id, amount) VALUES (?, ?, ?)
		ON CONFLICT(account_id, credit_id) DO UPDATE SET amount = excluded.amount
	`, accountID, creditID, next.String())
	return err
}

func scanCredit(row rowScanner) (*domain.Credit, error) {
	var (
		credit           domain.Credit
		issued, redeemed string
		dateIss, dateExp string
		last             sql.NullString
	)
	err := row.Scan(&credit.ID, &credit.Name, &credit.IssuerID, &credit.IssuerName,
		&credit.Series, &issued, &redeemed, &dateIss, &dateExp, &last)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if credit.AmountIssued, err = parseDec(issued); err != nil {
		return nil, err
	}
	if credit.AmountRedeemed, err = parseDec(redeemed); err != nil {
		return nil, err
	}
	credit.DateIssued = parseTime(dateIss)
	credit.DateExpire = parseTime(dateExp)
	credit.LastTransacted = parseNullTime(last)
	return &credit, nil
}

func getCreditTx(tx *sql.Tx, id string) (*domain.Credit, error) {
	return scanCredit(tx.QueryRow(`
		SELECT c.id, c.name, c.issuer_id, e.name, c.series, c.amount_issued,
			c.amount_redeemed, c.date_issued, c.date_expire, c.last_transacted
		FROM credits c JOIN entities e ON e.id = c.issuer_id
		WHERE c.id = ?
	`, id))
}
