// Reference data: cities, industries, venues, affiliations, venue
// associations, and passive relationships. These tables carry uniqueness and
// foreign-key constraints only — no ledger invariants.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tradewave-network/tradewave/internal/domain"
)

// ─── Cities ─────────────────────────────────────────────────────────────────

// AddCity registers a municipality, unique on (name, state, country).
func (db *DB) AddCity(name, state, country string) (*domain.City, error) {
	c := &domain.City{ID: uuid.NewString(), Name: name, State: state, Country: country}
	_, err := db.db.Exec(`
		INSERT INTO cities (id, name, state, country) VALUES (?, ?, ?, ?)
	`, c.ID, c.Name, c.State, c.Country)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("city %q/%q/%q: %w", name, state, country, domain.ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCity retrieves a city by ID.
func (db *DB) GetCity(id string) (*domain.City, error) {
	var c domain.City
	err := db.db.QueryRow(`
		SELECT id, name, state, country FROM cities WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.State, &c.Country)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCities returns all cities ordered by country, state, name.
func (db *DB) ListCities() ([]domain.City, error) {
	rows, err := db.db.Query(`
		SELECT id, name, state, country FROM cities ORDER BY country, state, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name, &c.State, &c.Country); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// ─── Industries ─────────────────────────────────────────────────────────────

// AddIndustry registers a business category, unique on name.
func (db *DB) AddIndustry(name string) (*domain.Industry, error) {
	ind := &domain.Industry{ID: uuid.NewString(), Name: name}
	_, err := db.db.Exec(`INSERT INTO industries (id, name) VALUES (?, ?)`, ind.ID, ind.Name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("industry %q: %w", name, domain.ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	return ind, nil
}

// ListIndustries returns all industries ordered by name.
func (db *DB) ListIndustries() ([]domain.Industry, error) {
	rows, err := db.db.Query(`SELECT id, name FROM industries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Industry
	for rows.Next() {
		var ind domain.Industry
		if err := rows.Scan(&ind.ID, &ind.Name); err != nil {
			return nil, err
		}
		result = append(result, ind)
	}
	return result, rows.Err()
}

// ─── Venues ─────────────────────────────────────────────────────────────────

// AddVenue registers a venue in an existing city.
func (db *DB) AddVenue(v *domain.Venue) (*domain.Venue, error) {
	stored := *v
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.DateCreated.IsZero() {
		stored.DateCreated = now
	}
	stored.DateActive = now

	_, err := db.db.Exec(`
		INSERT INTO venues (id, name, address, zipcode, city_id, date_created, date_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.Name, stored.Address, stored.Zipcode, stored.CityID,
		fmtTime(stored.DateCreated), fmtTime(stored.DateActive))
	if isFKViolation(err) {
		return nil, fmt.Errorf("city %s: %w", stored.CityID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetVenue retrieves a venue by ID, with its city name for display.
func (db *DB) GetVenue(id string) (*domain.Venue, error) {
	var (
		v                    domain.Venue
		dateCreated, dateAct string
	)
	err := db.db.QueryRow(`
		SELECT v.id, v.name, v.address, v.zipcode, v.city_id, c.name,
			v.date_created, v.date_active
		FROM venues v JOIN cities c ON c.id = v.city_id
		WHERE v.id = ?
	`, id).Scan(&v.ID, &v.Name, &v.Address, &v.Zipcode, &v.CityID, &v.CityName,
		&dateCreated, &dateAct)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.DateCreated = parseTime(dateCreated)
	v.DateActive = parseTime(dateAct)
	return &v, nil
}

// ListVenues returns all venues ordered by name.
func (db *DB) ListVenues() ([]domain.Venue, error) {
	rows, err := db.db.Query(`
		SELECT v.id, v.name, v.address, v.zipcode, v.city_id, c.name,
			v.date_created, v.date_active
		FROM venues v JOIN cities c ON c.id = v.city_id
		ORDER BY v.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Venue
	for rows.Next() {
		var (
			v                    domain.Venue
			dateCreated, dateAct string
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.Zipcode, &v.CityID,
			&v.CityName, &dateCreated, &dateAct); err != nil {
			return nil, err
		}
		v.DateCreated = parseTime(dateCreated)
		v.DateActive = parseTime(dateAct)
		result = append(result, v)
	}
	return result, rows.Err()
}

// ─── Affiliations ───────────────────────────────────────────────────────────

// AddAffiliation records a vendor operating within a marketplace. Both sides
// must exist and have the matching kind.
func (db *DB) AddAffiliation(marketplaceID, vendorID string, started time.Time) (*domain.Affiliation, error) {
	if started.IsZero() {
		started = time.Now().UTC()
	}
	a := &domain.Affiliation{
		MarketplaceID: marketplaceID,
		VendorID:      vendorID,
		DateStarted:   started,
	}
	err := db.withTx(func(tx *sql.Tx) error {
		if err := requireKindTx(tx, marketplaceID, domain.KindMarketplace); err != nil {
			return err
		}
		if err := requireKindTx(tx, vendorID, domain.KindVendor); err != nil {
			return err
		}
		_, err := tx.Exec(`
			INSERT INTO affiliations (marketplace_id, vendor_id, date_started)
			VALUES (?, ?, ?)
		`, a.MarketplaceID, a.VendorID, fmtTime(a.DateStarted))
		if isUniqueViolation(err) {
			return fmt.Errorf("affiliation: %w", domain.ErrDuplicate)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MarketplaceVendors returns the vendors affiliated with a marketplace.
func (db *DB) MarketplaceVendors(marketplaceID string) ([]domain.Entity, error) {
	rows, err := db.db.Query(`
		SELECT `+prefixedEntityColumns("e")+`
		FROM entities e
		JOIN affiliations a ON a.vendor_id = e.id
		WHERE a.marketplace_id = ?
		ORDER BY e.name
	`, marketplaceID)
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

// ─── Venue Associations ─────────────────────────────────────────────────────

// MapVenue associates an entity with a venue it operates at.
func (db *DB) MapVenue(entityID, venueID string) error {
	_, err := db.db.Exec(`
		INSERT INTO venue_map (entity_id, venue_id) VALUES (?, ?)
	`, entityID, venueID)
	if isUniqueViolation(err) {
		return fmt.Errorf("venue map: %w", domain.ErrDuplicate)
	}
	if isFKViolation(err) {
		return fmt.Errorf("venue map: %w", domain.ErrNotFound)
	}
	return err
}

// EntityVenues returns the venues an entity operates at, with display names.
func (db *DB) EntityVenues(entityID string) ([]domain.VenueMap, error) {
	rows, err := db.db.Query(`
		SELECT m.entity_id, m.venue_id, e.name, v.name
		FROM venue_map m
		JOIN entities e ON e.id = m.entity_id
		JOIN venues v ON v.id = m.venue_id
		WHERE m.entity_id = ?
		ORDER BY v.name
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.VenueMap
	for rows.Next() {
		var m domain.VenueMap
		if err := rows.Scan(&m.EntityID, &m.VenueID, &m.EntityName, &m.VenueName); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// ─── Relationships ──────────────────────────────────────────────────────────

// AddRelationship records a passive link ("like", "follow", …) from a
// personal entity to any entity.
func (db *DB) AddRelationship(name, holderID, entityID string) (*domain.Relationship, error) {
	r := &domain.Relationship{
		Name:        name,
		HolderID:    holderID,
		EntityID:    entityID,
		DateStarted: time.Now().UTC(),
	}
	err := db.withTx(func(tx *sql.Tx) error {
		if err := requireKindTx(tx, holderID, domain.KindPersonal); err != nil {
			return err
		}
		_, err := tx.Exec(`
			INSERT INTO relationships (name, holder_id, entity_id, date_started)
			VALUES (?, ?, ?, ?)
		`, r.Name, r.HolderID, r.EntityID, fmtTime(r.DateStarted))
		if isUniqueViolation(err) {
			return fmt.Errorf("relationship: %w", domain.ErrDuplicate)
		}
		if isFKViolation(err) {
			return fmt.Errorf("relationship: %w", domain.ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Relationships returns a personal entity's relationships, oldest first.
func (db *DB) Relationships(holderID string) ([]domain.Relationship, error) {
	rows, err := db.db.Query(`
		SELECT name, holder_id, entity_id, date_started
		FROM relationships WHERE holder_id = ?
		ORDER BY date_started
	`, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Relationship
	for rows.Next() {
		var (
			r       domain.Relationship
			started string
		)
		if err := rows.Scan(&r.Name, &r.HolderID, &r.EntityID, &started); err != nil {
			return nil, err
		}
		r.DateStarted = parseTime(started)
		result = append(result, r)
	}
	return result, rows.Err()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// requireKindTx verifies the entity exists and has the expected kind.
func requireKindTx(tx *sql.Tx, entityID string, want domain.EntityKind) error {
	var kind string
	err := tx.QueryRow(`SELECT kind FROM entities WHERE id = ?`, entityID).Scan(&kind)
	if err == sql.ErrNoRows {
		return fmt.Errorf("entity %s: %w", entityID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if domain.EntityKind(kind) != want {
		return fmt.Errorf("entity %s is %s, want %s", entityID, kind, want)
	}
	return nil
}

// prefixedEntityColumns qualifies the entity column list with a table alias.
func prefixedEntityColumns(alias string) string {
	return alias + `.id, ` + alias + `.kind, ` + alias + `.name, ` + alias + `.email, ` +
		alias + `.can_issue, ` + alias + `.rating, COALESCE(` + alias + `.industry_id, ''), ` +
		alias + `.is_csa, ` + alias + `.max_issue, COALESCE(` + alias + `.city_id, ''), ` +
		alias + `.date_created, ` + alias + `.date_active`
}
