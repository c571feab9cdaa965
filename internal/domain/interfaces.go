package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Ledger is the authoritative owner of account balances, credit
// issuance/redemption state, and the transaction audit trail. Every mutation
// executes as a single atomic unit against the shared store.
type Ledger interface {
	// IssueCredit creates a new credit series and credits the issuer's own
	// account with the full issued amount. A zero expire time defaults to
	// DateIssued + DefaultExpiry.
	IssueCredit(issuerEntityID, name string, series int, amount decimal.Decimal, expire time.Time) (*Credit, error)

	// Transfer atomically moves amount of a credit between two accounts and
	// appends the audit row. When redeem is true and the destination is the
	// issuer's own account, the amount is extinguished instead of credited.
	Transfer(fromAccountID, toAccountID, creditID string, amount decimal.Decimal, venueID string, redeem bool) (*TransactionLog, error)

	// Redeem returns amount of a credit to its issuer, permanently reducing
	// transferable supply.
	Redeem(accountID, creditID string, amount decimal.Decimal, venueID string) (*TransactionLog, error)

	// Balance returns the amount of one credit held by an account.
	Balance(accountID, creditID string) (decimal.Decimal, error)

	// Balances returns every non-zero holding of an account.
	Balances(accountID string) ([]Holding, error)

	// History returns the account's transaction log rows, newest first.
	// Zero since/until bounds are open.
	History(accountID string, since, until time.Time) ([]TransactionLog, error)
}

// Operation names a ledger mutation for capability checks.
type Operation string

const (
	OpIssue    Operation = "issue"
	OpTransfer Operation = "transfer"
	OpRedeem   Operation = "redeem"
)

// Authorizer is the external capability-check collaborator. Admin, manager,
// and employee roles live outside the ledger; the service consults this
// before every mutation and the store never sees it.
type Authorizer interface {
	// Authorize reports whether caller may perform op on behalf of the given
	// entity or account. A nil error allows the call.
	Authorize(callerID string, op Operation, subjectID string) error
}
