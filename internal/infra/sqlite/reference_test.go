package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/tradewave-network/tradewave/internal/domain"
)

func TestCities(t *testing.T) {
	db := newTestDB(t)

	city, err := db.AddCity("Portland", "OR", "USA")
	if err != nil {
		t.Fatalf("add city: %v", err)
	}
	if _, err := db.AddCity("Portland", "OR", "USA"); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate city: err = %v, want ErrDuplicate", err)
	}
	// Same name in another state is a different city.
	if _, err := db.AddCity("Portland", "ME", "USA"); err != nil {
		t.Fatalf("Portland ME: %v", err)
	}

	got, err := db.GetCity(city.ID)
	if err != nil {
		t.Fatalf("get city: %v", err)
	}
	if got.State != "OR" {
		t.Errorf("state = %q, want OR", got.State)
	}

	cities, err := db.ListCities()
	if err != nil {
		t.Fatalf("list cities: %v", err)
	}
	if len(cities) != 2 {
		t.Fatalf("got %d cities, want 2", len(cities))
	}
}

func TestIndustries(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.AddIndustry("food"); err != nil {
		t.Fatalf("add industry: %v", err)
	}
	if _, err := db.AddIndustry("food"); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate industry: err = %v, want ErrDuplicate", err)
	}

	industries, err := db.ListIndustries()
	if err != nil {
		t.Fatalf("list industries: %v", err)
	}
	if len(industries) != 1 || industries[0].Name != "food" {
		t.Fatalf("unexpected industries: %+v", industries)
	}
}

func TestVenues(t *testing.T) {
	db := newTestDB(t)

	city, err := db.AddCity("Portland", "OR", "USA")
	if err != nil {
		t.Fatalf("add city: %v", err)
	}

	venue, err := db.AddVenue(&domain.Venue{
		Name:    "Main Square",
		Address: "100 Main St",
		Zipcode: "97201",
		CityID:  city.ID,
	})
	if err != nil {
		t.Fatalf("add venue: %v", err)
	}

	got, err := db.GetVenue(venue.ID)
	if err != nil {
		t.Fatalf("get venue: %v", err)
	}
	if got.CityName != "Portland" {
		t.Errorf("city name = %q, want Portland", got.CityName)
	}

	// Venues require an existing city.
	_, err = db.AddVenue(&domain.Venue{Name: "Nowhere", CityID: "no-such-city"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAffiliations(t *testing.T) {
	db := newTestDB(t)

	city, err := db.AddCity("Portland", "OR", "USA")
	if err != nil {
		t.Fatalf("add city: %v", err)
	}
	market := mustCreateEntity(t, db, &domain.Entity{
		Kind: domain.KindMarketplace, Name: "Eastside Exchange", CityID: city.ID,
	})
	vendor := mustCreateEntity(t, db, &domain.Entity{
		Kind: domain.KindVendor, Name: "Green Farm",
	})
	person := mustCreateEntity(t, db, &domain.Entity{
		Kind: domain.KindPersonal, Name: "alice",
	})

	if _, err := db.AddAffiliation(market.ID, vendor.ID, time.Time{}); err != nil {
		t.Fatalf("add affiliation: %v", err)
	}
	if _, err := db.AddAffiliation(market.ID, vendor.ID, time.Time{}); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate affiliation: err = %v, want ErrDuplicate", err)
	}

	// Kind checks on both sides.
	if _, err := db.AddAffiliation(vendor.ID, market.ID, time.Time{}); err == nil {
		t.Fatal("swapped kinds should be rejected")
	}
	if _, err := db.AddAffiliation(market.ID, person.ID, time.Time{}); err == nil {
		t.Fatal("personal entity cannot be an affiliated vendor")
	}

	vendors, err := db.MarketplaceVendors(market.ID)
	if err != nil {
		t.Fatalf("marketplace vendors: %v", err)
	}
	if len(vendors) != 1 || vendors[0].ID != vendor.ID {
		t.Fatalf("unexpected vendors: %+v", vendors)
	}
}

func TestVenueMap(t *testing.T) {
	db := newTestDB(t)

	city, err := db.AddCity("Portland", "OR", "USA")
	if err != nil {
		t.Fatalf("add city: %v", err)
	}
	venue, err := db.AddVenue(&domain.Venue{Name: "Main Square", CityID: city.ID})
	if err != nil {
		t.Fatalf("add venue: %v", err)
	}
	vendor := mustCreateEntity(t, db, &domain.Entity{Kind: domain.KindVendor, Name: "Green Farm"})

	if err := db.MapVenue(vendor.ID, venue.ID); err != nil {
		t.Fatalf("map venue: %v", err)
	}
	if err := db.MapVenue(vendor.ID, venue.ID); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate mapping: err = %v, want ErrDuplicate", err)
	}
	if err := db.MapVenue(vendor.ID, "no-such-venue"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing venue: err = %v, want ErrNotFound", err)
	}

	maps, err := db.EntityVenues(vendor.ID)
	if err != nil {
		t.Fatalf("entity venues: %v", err)
	}
	if len(maps) != 1 {
		t.Fatalf("got %d mappings, want 1", len(maps))
	}
	if want := "Green Farm at Main Square"; maps[0].String() != want {
		t.Errorf("String() = %q, want %q", maps[0].String(), want)
	}
}

func TestRelationships(t *testing.T) {
	db := newTestDB(t)

	alice := mustCreateEntity(t, db, &domain.Entity{Kind: domain.KindPersonal, Name: "alice"})
	vendor := mustCreateEntity(t, db, &domain.Entity{Kind: domain.KindVendor, Name: "Green Farm"})

	if _, err := db.AddRelationship("follows", alice.ID, vendor.ID); err != nil {
		t.Fatalf("add relationship: %v", err)
	}
	if _, err := db.AddRelationship("follows", alice.ID, vendor.ID); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate relationship: err = %v, want ErrDuplicate", err)
	}
	// A second name between the same pair is distinct.
	if _, err := db.AddRelationship("likes", alice.ID, vendor.ID); err != nil {
		t.Fatalf("second relationship name: %v", err)
	}

	// Only personal entities hold relationships.
	if _, err := db.AddRelationship("follows", vendor.ID, alice.ID); err == nil {
		t.Fatal("vendor-held relationship should be rejected")
	}

	rels, err := db.Relationships(alice.ID)
	if err != nil {
		t.Fatalf("relationships: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("got %d relationships, want 2", len(rels))
	}
}
