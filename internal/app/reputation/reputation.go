// Package reputation scores issuer trustworthiness from ledger history.
//
// A vendor's rating has 3 components:
//   - Redemption: how much of the issued supply came back for goods?
//   - Activity: are the vendor's credits still moving?
//   - Longevity: how long has the vendor been issuing?
//
// Overall = 0.60×redemption + 0.20×activity + 0.20×longevity − penalties
//
// Credits that expire with supply still circulating penalize the issuer:
// holders were left with paper the vendor never honored.
package reputation

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// Component weights (sum to 1.0 before penalty deduction)
	WeightRedemption = 0.60
	WeightActivity   = 0.20
	WeightLongevity  = 0.10
	WeightVolume     = 0.10

	// PenaltyWeight is the deduction factor per fully-expired, unhonored
	// credit share.
	PenaltyWeight = 0.25

	// NeutralScore is assigned to issuers with no history yet.
	NeutralScore = 0.5

	// FloorScore is the minimum — issuers always get a second chance.
	FloorScore = 0.1

	// CeilingScore is the absolute maximum.
	CeilingScore = 1.0

	// ActivityWindow is how recently a credit must have moved to count as
	// active.
	ActivityWindow = 90 * 24 * time.Hour

	// LongevityFullDays is how many days of issuing history earn the
	// maximum longevity score.
	LongevityFullDays = 180

	// VolumeFullCredits is how many credit series earn the maximum
	// volume score.
	VolumeFullCredits = 20
)

// ─── Types ──────────────────────────────────────────────────────────────────

// Components holds the individual score components, each in [0, 1].
type Components struct {
	Redemption float64 `json:"redemption"` // Issued-amount-weighted redemption ratio
	Activity   float64 `json:"activity"`   // Share of credits transacted recently
	Longevity  float64 `json:"longevity"`  // min(1.0, issuing_days / 180)
	Volume     float64 `json:"volume"`     // min(1.0, credit_series / 20)
}

// Score is an issuer's complete reputation state.
type Score struct {
	EntityID    string     `json:"entity_id"`
	Components  Components `json:"components"`
	Penalties   float64    `json:"penalties"` // Accumulated expiry penalties [0, ∞)
	CreditCount int        `json:"credit_count"`
	ComputedAt  time.Time  `json:"computed_at"`
}

// Overall computes the weighted score:
//
//	overall = Σ(weight_i × component_i) − penaltyWeight × penalties
//
// Clamped to [FloorScore, CeilingScore]. Issuers with no credits sit at
// NeutralScore.
func (s *Score) Overall() float64 {
	if s.CreditCount == 0 {
		return NeutralScore
	}
	c := s.Components
	score := WeightRedemption*c.Redemption +
		WeightActivity*c.Activity +
		WeightLongevity*c.Longevity +
		WeightVolume*c.Volume -
		PenaltyWeight*s.Penalties

	return clamp(score, FloorScore, CeilingScore)
}

// TrustTier returns a human label for the trust level.
func (s *Score) TrustTier() string {
	o := s.Overall()
	switch {
	case o >= 0.9:
		return "EXCELLENT"
	case o >= 0.7:
		return "GOOD"
	case o >= 0.5:
		return "NEUTRAL"
	case o >= 0.3:
		return "LOW"
	default:
		return "POOR"
	}
}

// ─── Scorer ─────────────────────────────────────────────────────────────────

// Store is the slice of the ledger store the scorer needs.
type Store interface {
	CreditsByIssuer(entityID string) ([]domain.Credit, error)
	SetEntityRating(entityID string, rating float64) error
}

// Scorer computes and persists issuer ratings from credit history.
type Scorer struct {
	store Store

	// Injectable clock for testing.
	now func() time.Time
}

// NewScorer creates a reputation scorer over the given store.
func NewScorer(store Store) *Scorer {
	return &Scorer{store: store, now: time.Now}
}

// Compute derives an issuer's score from its credit history without
// persisting anything.
func (s *Scorer) Compute(entityID string) (*Score, error) {
	credits, err := s.store.CreditsByIssuer(entityID)
	if err != nil {
		return nil, fmt.Errorf("credits for %s: %w", entityID, err)
	}

	now := s.now().UTC()
	score := &Score{EntityID: entityID, CreditCount: len(credits), ComputedAt: now}
	if len(credits) == 0 {
		return score, nil
	}

	var (
		totalIssued   = decimal.Zero
		totalRedeemed = decimal.Zero
		active        int
		firstIssued   = credits[0].DateIssued
	)
	for i := range credits {
		c := &credits[i]
		totalIssued = totalIssued.Add(c.AmountIssued)
		totalRedeemed = totalRedeemed.Add(c.AmountRedeemed)

		last := c.LastTransacted
		if last.IsZero() {
			last = c.DateIssued
		}
		if now.Sub(last) <= ActivityWindow {
			active++
		}
		if c.DateIssued.Before(firstIssued) {
			firstIssued = c.DateIssued
		}

		// An expired credit with supply never redeemed means holders were
		// left unhonored. Penalty severity is the unredeemed share.
		if c.Expired(now) && c.AmountRedeemed.LessThan(c.AmountIssued) {
			unhonored, _ := c.AmountIssued.Sub(c.AmountRedeemed).
				Div(c.AmountIssued).Float64()
			score.Penalties += unhonored
		}
	}

	if totalIssued.IsPositive() {
		score.Components.Redemption, _ = totalRedeemed.Div(totalIssued).Float64()
	}
	score.Components.Activity = float64(active) / float64(len(credits))
	days := now.Sub(firstIssued).Hours() / 24
	score.Components.Longevity = math.Min(1.0, days/LongevityFullDays)
	score.Components.Volume = math.Min(1.0, float64(len(credits))/VolumeFullCredits)

	return score, nil
}

// Recompute derives an issuer's score and persists it as the entity rating.
func (s *Scorer) Recompute(entityID string) (*Score, error) {
	score, err := s.Compute(entityID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetEntityRating(entityID, score.Overall()); err != nil {
		return nil, fmt.Errorf("persist rating for %s: %w", entityID, err)
	}
	return score, nil
}

// clamp restricts a value to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
