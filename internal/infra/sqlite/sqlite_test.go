package sqlite

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
)

// ─── Test Helpers ───────────────────────────────────────────────────────────

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture wires a minimal marketplace: one issuing vendor, one personal
// holder, and a venue to transact at.
type fixture struct {
	db            *DB
	issuer        *domain.Entity
	issuerAccount *domain.Account
	holder        *domain.Entity
	holderAccount *domain.Account
	venue         *domain.Venue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	issuer := mustCreateEntity(t, db, &domain.Entity{
		Kind:     domain.KindVendor,
		Name:     "Green Farm",
		CanIssue: true,
	})
	holder := mustCreateEntity(t, db, &domain.Entity{
		Kind: domain.KindPersonal,
		Name: "alice",
	})

	city, err := db.AddCity("Portland", "OR", "USA")
	if err != nil {
		t.Fatalf("add city: %v", err)
	}
	venue, err := db.AddVenue(&domain.Venue{Name: "Main Square", CityID: city.ID})
	if err != nil {
		t.Fatalf("add venue: %v", err)
	}

	return &fixture{
		db:            db,
		issuer:        issuer,
		issuerAccount: mustAccountFor(t, db, issuer.ID),
		holder:        holder,
		holderAccount: mustAccountFor(t, db, holder.ID),
		venue:         venue,
	}
}

func mustCreateEntity(t *testing.T, db *DB, e *domain.Entity) *domain.Entity {
	t.Helper()
	created, err := db.CreateEntity(e)
	if err != nil {
		t.Fatalf("create entity %q: %v", e.Name, err)
	}
	return created
}

func mustAccountFor(t *testing.T, db *DB, entityID string) *domain.Account {
	t.Helper()
	a, err := db.AccountForEntity(entityID)
	if err != nil {
		t.Fatalf("account for %s: %v", entityID, err)
	}
	return a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalance(t *testing.T, db *DB, accountID, creditID, want string) {
	t.Helper()
	got, err := db.Balance(accountID, creditID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !got.Equal(dec(want)) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

func mustIssue(t *testing.T, f *fixture, amount string) *domain.Credit {
	t.Helper()
	credit, err := f.db.IssueCredit(f.issuer.ID, "Harvest Token", 1, dec(amount), time.Time{})
	if err != nil {
		t.Fatalf("issue credit: %v", err)
	}
	return credit
}
