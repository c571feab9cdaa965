// Package ledger is the service boundary external collaborators call.
//
// The service:
//  1. Consults the capability-check collaborator (Authorizer) before any mutation
//  2. Applies configured defaults (credit expiry)
//  3. Delegates to the store, which owns atomicity and invariants
//  4. Records metrics and trace spans per operation
//
// Presentation concerns — HTTP, web UI, authentication — live outside this
// module and call in through these methods.
package ledger

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
	"github.com/tradewave-network/tradewave/internal/infra/observability"
)

// Config controls service behavior.
type Config struct {
	DefaultExpiry time.Duration // Applied when a caller issues without an expiry
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{DefaultExpiry: domain.DefaultExpiry}
}

// AllowAll is the default capability-check collaborator: every caller may do
// everything. Deployments plug in their own role policy.
type AllowAll struct{}

func (AllowAll) Authorize(string, domain.Operation, string) error { return nil }

// Service wraps the ledger store for external callers.
type Service struct {
	config Config
	store  domain.Ledger
	authz  domain.Authorizer
	tracer *observability.Tracer
}

// New creates a ledger service. A nil authorizer allows everything; a nil
// tracer disables span recording.
func New(cfg Config, store domain.Ledger, authz domain.Authorizer, tracer *observability.Tracer) *Service {
	if cfg.DefaultExpiry <= 0 {
		cfg.DefaultExpiry = domain.DefaultExpiry
	}
	if authz == nil {
		authz = AllowAll{}
	}
	if tracer == nil {
		tracer = observability.NewTracer(observability.TracerConfig{Enabled: false})
	}
	return &Service{config: cfg, store: store, authz: authz, tracer: tracer}
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// IssueCredit creates a new credit series on behalf of callerID.
func (s *Service) IssueCredit(ctx context.Context, callerID, issuerEntityID, name string, series int, amount decimal.Decimal, expire time.Time) (*domain.Credit, error) {
	span := s.tracer.StartSpan(ctx, "ledger.issue", map[string]string{
		"issuer": issuerEntityID, "credit": name,
	})
	start := time.Now()

	credit, err := s.issueCredit(callerID, issuerEntityID, name, series, amount, expire)

	s.finish(span, "issue", start, err)
	if err == nil {
		amt, _ := amount.Float64()
		observability.CreditsIssued.Add(amt)
	}
	return credit, err
}

func (s *Service) issueCredit(callerID, issuerEntityID, name string, series int, amount decimal.Decimal, expire time.Time) (*domain.Credit, error) {
	if err := s.authz.Authorize(callerID, domain.OpIssue, issuerEntityID); err != nil {
		return nil, err
	}
	if expire.IsZero() {
		expire = time.Now().UTC().Add(s.config.DefaultExpiry)
	}
	return s.store.IssueCredit(issuerEntityID, name, series, amount, expire)
}

// Transfer moves credit between accounts on behalf of callerID.
func (s *Service) Transfer(ctx context.Context, callerID, fromAccountID, toAccountID, creditID string, amount decimal.Decimal, venueID string, redeem bool) (*domain.TransactionLog, error) {
	span := s.tracer.StartSpan(ctx, "ledger.transfer", map[string]string{
		"from": fromAccountID, "to": toAccountID, "credit": creditID,
	})
	start := time.Now()

	var logRow *domain.TransactionLog
	err := s.authz.Authorize(callerID, domain.OpTransfer, fromAccountID)
	if err == nil {
		logRow, err = s.store.Transfer(fromAccountID, toAccountID, creditID, amount, venueID, redeem)
	}

	s.finish(span, "transfer", start, err)
	if err == nil {
		amt, _ := amount.Float64()
		observability.CreditsTransferred.Add(amt)
		if logRow.Redeemed {
			observability.CreditsRedeemed.Add(amt)
		}
	}
	return logRow, err
}

// Redeem returns credit to its issuer on behalf of callerID.
func (s *Service) Redeem(ctx context.Context, callerID, accountID, creditID string, amount decimal.Decimal, venueID string) (*domain.TransactionLog, error) {
	span := s.tracer.StartSpan(ctx, "ledger.redeem", map[string]string{
		"account": accountID, "credit": creditID,
	})
	start := time.Now()

	var logRow *domain.TransactionLog
	err := s.authz.Authorize(callerID, domain.OpRedeem, accountID)
	if err == nil {
		logRow, err = s.store.Redeem(accountID, creditID, amount, venueID)
	}

	s.finish(span, "redeem", start, err)
	if err == nil && logRow.Redeemed {
		amt, _ := amount.Float64()
		observability.CreditsRedeemed.Add(amt)
	}
	return logRow, err
}

// ─── Reads ──────────────────────────────────────────────────────────────────
// Pure queries with no invariants to enforce — no capability check.

// Balance returns the amount of one credit held by an account.
func (s *Service) Balance(accountID, creditID string) (decimal.Decimal, error) {
	return s.store.Balance(accountID, creditID)
}

// Balances returns every non-zero holding of an account.
func (s *Service) Balances(accountID string) ([]domain.Holding, error) {
	return s.store.Balances(accountID)
}

// History returns the account's transaction log, newest first.
func (s *Service) History(accountID string, since, until time.Time) ([]domain.TransactionLog, error) {
	return s.store.History(accountID, since, until)
}

// ─── Instrumentation ────────────────────────────────────────────────────────

func (s *Service) finish(span *observability.Span, op string, start time.Time, err error) {
	s.tracer.EndSpan(span, err)
	observability.LedgerOperations.WithLabelValues(op, outcome(err)).Inc()
	observability.LedgerOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	// Invariant violations are store bugs, not caller errors — alert loudly.
	if errors.Is(err, domain.ErrInvariant) {
		log.Printf("LEDGER INVARIANT VIOLATION during %s: %v", op, err)
	}
}

// outcome maps an error to a stable metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrIssuanceDenied):
		return "issuance_denied"
	case errors.Is(err, domain.ErrCapExceeded):
		return "cap_exceeded"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrExpiredCredit):
		return "expired_credit"
	case errors.Is(err, domain.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrInvariant):
		return "invariant_violation"
	default:
		return "error"
	}
}
