package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultExpiry is how long a credit stays transferable when the issuer
// does not pick an expiration date.
const DefaultExpiry = 365 * 24 * time.Hour

// ─── Credit ─────────────────────────────────────────────────────────────────

// CreditState classifies where a credit sits in its lifecycle.
type CreditState string

const (
	// CreditActive credits can be transferred and redeemed.
	CreditActive CreditState = "ACTIVE"
	// CreditFullyRedeemed credits have had their entire issued supply
	// returned to the issuer. Terminal: transferable balance is zero by
	// construction.
	CreditFullyRedeemed CreditState = "FULLY_REDEEMED"
	// CreditExpired credits are past their expiration date. Terminal:
	// transfers are rejected outright.
	CreditExpired CreditState = "EXPIRED"
)

// Credit is a named, series-numbered credit instrument issued by one entity.
// Issuer and series are immutable once created.
type Credit struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	IssuerID       string          `json:"issuer_id"`
	IssuerName     string          `json:"issuer_name,omitempty"` // Populated on read for display
	Series         int             `json:"series"`
	AmountIssued   decimal.Decimal `json:"amount_issued"`
	AmountRedeemed decimal.Decimal `json:"amount_redeemed"`
	DateIssued     time.Time       `json:"date_issued"`
	DateExpire     time.Time       `json:"date_expire"`
	LastTransacted time.Time       `json:"last_transacted,omitempty"`
}

// Rating is the redemption ratio: amount_redeemed / amount_issued.
// Defined as 0 when nothing has been issued.
func (c *Credit) Rating() float64 {
	if c.AmountIssued.IsZero() {
		return 0
	}
	rating, _ := c.AmountRedeemed.Div(c.AmountIssued).Float64()
	return rating
}

// Expired reports whether the credit is past its expiration date at now.
func (c *Credit) Expired(now time.Time) bool {
	return !now.Before(c.DateExpire)
}

// State returns the lifecycle state at now. Expiration wins over full
// redemption when both apply — either way the credit no longer moves.
func (c *Credit) State(now time.Time) CreditState {
	switch {
	case c.Expired(now):
		return CreditExpired
	case c.AmountRedeemed.GreaterThanOrEqual(c.AmountIssued):
		return CreditFullyRedeemed
	default:
		return CreditActive
	}
}

// String renders the credit for logs and CLI output.
func (c *Credit) String() string {
	return strings.Join([]string{
		"credit", c.Name,
		"series", fmt.Sprintf("#%d", c.Series),
		"issued by", c.IssuerName,
	}, " ")
}

// ─── Holding ────────────────────────────────────────────────────────────────

// Holding records how much of a credit an account holds (the credit map).
// Amounts are never negative.
type Holding struct {
	AccountID  string          `json:"account_id"`
	CreditID   string          `json:"credit_id"`
	Amount     decimal.Decimal `json:"amount"`
	CreditName string          `json:"credit_name,omitempty"` // Populated on read for display
	HolderName string          `json:"holder_name,omitempty"`
}

func (h Holding) String() string {
	return strings.Join([]string{
		h.Amount.String(), "of", h.CreditName, "credits held by", h.HolderName,
	}, " ")
}

// ─── Transaction Log ────────────────────────────────────────────────────────

// TransactionLog is one immutable row of the audit trail: a single movement
// of one credit between two accounts at a venue. Rows are appended within the
// same atomic unit as the balance mutation and are never updated or deleted.
type TransactionLog struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	CreditID      string          `json:"credit_id"`
	Amount        decimal.Decimal `json:"amount"`
	VenueID       string          `json:"venue_id"`
	Redeemed      bool            `json:"redeemed"` // Credit extinguished by this transaction

	// Populated on read for display
	CreditName string `json:"credit_name,omitempty"`
	FromName   string `json:"from_name,omitempty"`
	ToName     string `json:"to_name,omitempty"`
}

func (l TransactionLog) String() string {
	return strings.Join([]string{
		"Transaction:", l.Amount.String(),
		l.CreditName + "'s", "credits from", l.FromName,
		"sent to", l.ToName,
	}, " ")
}
