// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the ledger — it depends on nothing.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Entity Types ───────────────────────────────────────────────────────────

// EntityKind discriminates the participant variants. Vendors and marketplaces
// are entities with extra attributes, not subclasses.
type EntityKind string

const (
	KindPersonal    EntityKind = "personal"
	KindVendor      EntityKind = "vendor"
	KindMarketplace EntityKind = "marketplace"
)

// Valid reports whether the kind is one of the known variants.
func (k EntityKind) Valid() bool {
	switch k {
	case KindPersonal, KindVendor, KindMarketplace:
		return true
	}
	return false
}

// Entity is a marketplace participant — a person, vendor, or marketplace.
// Each entity owns exactly one Account.
type Entity struct {
	ID       string     `json:"id"`
	Kind     EntityKind `json:"kind"`
	Name     string     `json:"name"` // Unique across all entities
	Email    string     `json:"email,omitempty"`
	CanIssue bool       `json:"can_issue"`
	Rating   float64    `json:"rating"` // Reputation score

	// Vendor attributes (Kind == KindVendor)
	IndustryID string          `json:"industry_id,omitempty"`
	IsCSA      bool            `json:"is_csa,omitempty"`
	MaxIssue   decimal.Decimal `json:"max_issue,omitempty"` // Issuance cap; zero means unconfigured

	// Marketplace attributes (Kind == KindMarketplace)
	CityID   string `json:"city_id,omitempty"`
	CityName string `json:"city_name,omitempty"` // Populated on read for display

	DateCreated time.Time `json:"date_created"`
	DateActive  time.Time `json:"date_active"`
}

// Validate checks the construction constraints for an entity.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("entity name is required")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown entity kind %q", e.Kind)
	}
	if e.MaxIssue.IsNegative() {
		return fmt.Errorf("issuance cap cannot be negative")
	}
	return nil
}

// String renders the entity for logs and CLI output.
func (e *Entity) String() string {
	if e.Kind == KindMarketplace && e.CityName != "" {
		return strings.Join([]string{"marketplace:", e.Name, "in", e.CityName}, " ")
	}
	return strings.Join([]string{string(e.Kind), e.Name}, " ")
}

// Account is the credit wallet owned by exactly one Entity.
//
// AmountTotal is derived: it must always equal the sum of the account's
// Holding amounts. The store maintains it incrementally inside the same
// transaction as every holding mutation.
type Account struct {
	ID             string          `json:"id"`
	EntityID       string          `json:"entity_id"`
	AmountTotal    decimal.Decimal `json:"amount_total"`
	LastTransacted time.Time       `json:"last_transacted,omitempty"` // Zero if never transacted
}

// ─── Reference Types ────────────────────────────────────────────────────────
// Passive attributed nodes. Uniqueness and foreign-key existence are enforced
// at the store boundary; they carry no ledger invariants of their own.

// City is a municipality, unique on (name, state, country).
type City struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Country string `json:"country"`
}

func (c City) String() string {
	return "City: " + c.Name
}

// Venue is a physical location where transactions take place.
type Venue struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Zipcode     string    `json:"zipcode"`
	CityID      string    `json:"city_id"`
	CityName    string    `json:"city_name,omitempty"` // Populated on read for display
	DateCreated time.Time `json:"date_created"`
	DateActive  time.Time `json:"date_active"`
}

func (v Venue) String() string {
	return strings.Join([]string{"Venue:", v.Name, "at", v.CityName}, " ")
}

// Industry is a business category (food, construction, law, …), unique on name.
type Industry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Affiliation records a vendor operating within a marketplace.
type Affiliation struct {
	MarketplaceID string    `json:"marketplace_id"`
	VendorID      string    `json:"vendor_id"`
	DateStarted   time.Time `json:"date_started"`
}

// VenueMap associates an entity with a venue it operates at.
type VenueMap struct {
	EntityID   string `json:"entity_id"`
	VenueID    string `json:"venue_id"`
	EntityName string `json:"entity_name,omitempty"` // Populated on read for display
	VenueName  string `json:"venue_name,omitempty"`
}

func (m VenueMap) String() string {
	return strings.Join([]string{m.EntityName, "at", m.VenueName}, " ")
}

// Relationship is a passive link ("like", "follow", …) from a personal
// entity to any entity.
type Relationship struct {
	Name        string    `json:"name"`
	HolderID    string    `json:"holder_id"` // Personal entity holding the relationship
	EntityID    string    `json:"entity_id"` // Entity the relationship points at
	DateStarted time.Time `json:"date_started"`
}
