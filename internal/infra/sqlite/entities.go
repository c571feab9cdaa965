// Entity and account operations.
// Creating an entity creates its wallet account in the same transaction;
// deleting an entity cascades to the account and its holdings but never
// touches the transaction log.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
)

const entityColumns = `id, kind, name, email, can_issue, rating,
	COALESCE(industry_id, ''), is_csa, max_issue, COALESCE(city_id, ''),
	date_created, date_active`

// rowScanner lets the scan helpers work on both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*domain.Entity, error) {
	var (
		e                    domain.Entity
		canIssue, isCSA      int
		maxIssue             string
		dateCreated, dateAct string
	)
	err := row.Scan(&e.ID, &e.Kind, &e.Name, &e.Email, &canIssue, &e.Rating,
		&e.IndustryID, &isCSA, &maxIssue, &e.CityID, &dateCreated, &dateAct)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.CanIssue = canIssue == 1
	e.IsCSA = isCSA == 1
	if e.MaxIssue, err = parseDec(maxIssue); err != nil {
		return nil, err
	}
	e.DateCreated = parseTime(dateCreated)
	e.DateActive = parseTime(dateAct)
	return &e, nil
}

// ─── Entity Operations ──────────────────────────────────────────────────────

// CreateEntity registers a new participant and its wallet account.
// The entity name must be unique; vendor industry and marketplace city
// references must exist.
func (db *DB) CreateEntity(e *domain.Entity) (*domain.Entity, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	stored := *e
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.DateCreated.IsZero() {
		stored.DateCreated = now
	}
	stored.DateActive = now

	err := db.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO entities (id, kind, name, email, can_issue, rating,
				industry_id, is_csa, max_issue, city_id, date_created, date_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, stored.ID, string(stored.Kind), stored.Name, stored.Email,
			boolInt(stored.CanIssue), stored.Rating,
			nullIfEmpty(stored.IndustryID), boolInt(stored.IsCSA),
			stored.MaxIssue.String(), nullIfEmpty(stored.CityID),
			fmtTime(stored.DateCreated), fmtTime(stored.DateActive))
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("entity %q: %w", stored.Name, domain.ErrDuplicate)
		case isFKViolation(err):
			return fmt.Errorf("entity %q references a missing industry or city: %w",
				stored.Name, domain.ErrNotFound)
		case err != nil:
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO accounts (id, entity_id, amount_total) VALUES (?, ?, '0')
		`, uuid.NewString(), stored.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetEntity retrieves an entity by ID.
func (db *DB) GetEntity(id string) (*domain.Entity, error) {
	e, err := scanEntity(db.db.QueryRow(
		`SELECT `+entityColumns+` FROM entities WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	db.fillCityName(e)
	return e, nil
}

// GetEntityByName retrieves an entity by its unique name.
func (db *DB) GetEntityByName(name string) (*domain.Entity, error) {
	e, err := scanEntity(db.db.QueryRow(
		`SELECT `+entityColumns+` FROM entities WHERE name = ?`, name))
	if err != nil {
		return nil, err
	}
	db.fillCityName(e)
	return e, nil
}

func (db *DB) fillCityName(e *domain.Entity) {
	if e.CityID == "" {
		return
	}
	db.db.QueryRow(`SELECT name FROM cities WHERE id = ?`, e.CityID).Scan(&e.CityName)
}

// ListEntities returns all entities ordered by name.
func (db *DB) ListEntities() ([]domain.Entity, error) {
	rows, err := db.db.Query(`SELECT ` + entityColumns + ` FROM entities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// DeleteEntity removes an entity; its account and holdings cascade away.
// Entities that have issued credits cannot be removed — the credit rows
// reference them without cascade.
func (db *DB) DeleteEntity(id string) error {
	return db.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM entities WHERE id = ?`, id)
		if isFKViolation(err) {
			return fmt.Errorf("entity has issued credits: %w", domain.ErrConflict)
		}
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// SetEntityRating updates an entity's reputation score. The scoring model
// itself is external policy; the store only persists the value.
func (db *DB) SetEntityRating(id string, rating float64) error {
	res, err := db.db.Exec(`UPDATE entities SET rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ─── Account Operations ─────────────────────────────────────────────────────

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a     domain.Account
		total string
		last  sql.NullString
	)
	err := row.Scan(&a.ID, &a.EntityID, &total, &last)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.AmountTotal, err = parseDec(total); err != nil {
		return nil, err
	}
	a.LastTransacted = parseNullTime(last)
	return &a, nil
}

// GetAccount retrieves an account by ID.
func (db *DB) GetAccount(id string) (*domain.Account, error) {
	return scanAccount(db.db.QueryRow(
		`SELECT id, entity_id, amount_total, last_transacted FROM accounts WHERE id = ?`, id))
}

// AccountForEntity retrieves the wallet owned by the given entity.
func (db *DB) AccountForEntity(entityID string) (*domain.Account, error) {
	return scanAccount(db.db.QueryRow(
		`SELECT id, entity_id, amount_total, last_transacted FROM accounts WHERE entity_id = ?`, entityID))
}

// ─── In-Transaction Helpers ─────────────────────────────────────────────────

func getEntityTx(tx *sql.Tx, id string) (*domain.Entity, error) {
	return scanEntity(tx.QueryRow(
		`SELECT `+entityColumns+` FROM entities WHERE id = ?`, id))
}

func getAccountTx(tx *sql.Tx, id string) (*domain.Account, error) {
	return scanAccount(tx.QueryRow(
		`SELECT id, entity_id, amount_total, last_transacted FROM accounts WHERE id = ?`, id))
}

func accountForEntityTx(tx *sql.Tx, entityID string) (*domain.Account, error) {
	return scanAccount(tx.QueryRow(
		`SELECT id, entity_id, amount_total, last_transacted FROM accounts WHERE entity_id = ?`, entityID))
}

// adjustAccountTx applies a balance delta and stamps last_transacted.
func adjustAccountTx(tx *sql.Tx, a *domain.Account, delta decimal.Decimal, now time.Time) error {
	_, err := tx.Exec(`
		UPDATE accounts SET amount_total = ?, last_transacted = ? WHERE id = ?
	`, a.AmountTotal.Add(delta).String(), fmtTime(now), a.ID)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
