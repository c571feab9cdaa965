package reputation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
)

type fakeStore struct {
	credits    []domain.Credit
	err        error
	lastRating float64
	rated      bool
}

func (f *fakeStore) CreditsByIssuer(string) ([]domain.Credit, error) {
	return f.credits, f.err
}

func (f *fakeStore) SetEntityRating(_ string, rating float64) error {
	f.lastRating = rating
	f.rated = true
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newScorerAt pins the scorer's clock.
func newScorerAt(store Store, now time.Time) *Scorer {
	s := NewScorer(store)
	s.now = func() time.Time { return now }
	return s
}

func TestCompute_NoHistoryIsNeutral(t *testing.T) {
	scorer := NewScorer(&fakeStore{})

	score, err := scorer.Compute("vendor-1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := score.Overall(); got != NeutralScore {
		t.Errorf("Overall() = %v, want %v", got, NeutralScore)
	}
	if score.TrustTier() != "NEUTRAL" {
		t.Errorf("tier = %q, want NEUTRAL", score.TrustTier())
	}
}

func TestCompute_Components(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{credits: []domain.Credit{
		{
			AmountIssued:   dec("100"),
			AmountRedeemed: dec("80"),
			DateIssued:     now.AddDate(0, 0, -LongevityFullDays), // Full longevity
			DateExpire:     now.AddDate(1, 0, 0),
			LastTransacted: now.Add(-24 * time.Hour), // Active
		},
		{
			AmountIssued:   dec("100"),
			AmountRedeemed: dec("40"),
			DateIssued:     now.AddDate(0, 0, -120),
			DateExpire:     now.AddDate(1, 0, 0),
			LastTransacted: now.AddDate(0, 0, -120), // Stale
		},
	}}
	scorer := newScorerAt(store, now)

	score, err := scorer.Compute("vendor-1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// 120 of 200 issued came back.
	if got := score.Components.Redemption; math.Abs(got-0.6) > 1e-9 {
		t.Errorf("redemption = %v, want 0.6", got)
	}
	// 1 of 2 credits moved within the window.
	if got := score.Components.Activity; got != 0.5 {
		t.Errorf("activity = %v, want 0.5", got)
	}
	if got := score.Components.Longevity; got != 1.0 {
		t.Errorf("longevity = %v, want 1.0", got)
	}
	if got := score.Components.Volume; got != 2.0/VolumeFullCredits {
		t.Errorf("volume = %v, want %v", got, 2.0/VolumeFullCredits)
	}
	if score.Penalties != 0 {
		t.Errorf("penalties = %v, want 0", score.Penalties)
	}
}

func TestCompute_ExpiryPenalty(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{credits: []domain.Credit{
		// Expired with 75% of supply never honored.
		{
			AmountIssued:   dec("100"),
			AmountRedeemed: dec("25"),
			DateIssued:     now.AddDate(-1, 0, 0),
			DateExpire:     now.Add(-time.Hour),
		},
	}}
	scorer := newScorerAt(store, now)

	score, err := scorer.Compute("vendor-1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(score.Penalties-0.75) > 1e-9 {
		t.Errorf("penalties = %v, want 0.75", score.Penalties)
	}

	// A fully redeemed expired credit carries no penalty.
	store.credits[0].AmountRedeemed = dec("100")
	score, err = scorer.Compute("vendor-1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if score.Penalties != 0 {
		t.Errorf("penalties = %v, want 0", score.Penalties)
	}
}

func TestOverall_Clamped(t *testing.T) {
	heavy := &Score{
		CreditCount: 1,
		Penalties:   10, // Far past any component credit
	}
	if got := heavy.Overall(); got != FloorScore {
		t.Errorf("Overall() = %v, want floor %v", got, FloorScore)
	}
	if heavy.TrustTier() != "POOR" {
		t.Errorf("tier = %q, want POOR", heavy.TrustTier())
	}

	perfect := &Score{
		CreditCount: 1,
		Components:  Components{Redemption: 1, Activity: 1, Longevity: 1, Volume: 1},
	}
	if got := perfect.Overall(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Overall() = %v, want 1.0", got)
	}
	if perfect.TrustTier() != "EXCELLENT" {
		t.Errorf("tier = %q, want EXCELLENT", perfect.TrustTier())
	}
}

func TestRecompute_Persists(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{credits: []domain.Credit{
		{
			AmountIssued:   dec("100"),
			AmountRedeemed: dec("100"),
			DateIssued:     now.AddDate(0, 0, -1),
			DateExpire:     now.AddDate(1, 0, 0),
			LastTransacted: now,
		},
	}}
	scorer := newScorerAt(store, now)

	score, err := scorer.Recompute("vendor-1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !store.rated {
		t.Fatal("rating not persisted")
	}
	if store.lastRating != score.Overall() {
		t.Errorf("persisted %v, computed %v", store.lastRating, score.Overall())
	}
}

func TestCompute_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("boom")}
	if _, err := NewScorer(store).Compute("vendor-1"); err == nil {
		t.Fatal("expected store error to surface")
	}
}
