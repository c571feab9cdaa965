package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradewave-network/tradewave/internal/domain"
	"github.com/tradewave-network/tradewave/internal/infra/observability"
)

// fakeStore records the last call so tests can assert what the service
// forwarded. It never touches a database.
type fakeStore struct {
	lastOp     string
	lastExpire time.Time
	err        error
}

func (f *fakeStore) IssueCredit(issuerEntityID, name string, series int, amount decimal.Decimal, expire time.Time) (*domain.Credit, error) {
	f.lastOp = "issue"
	f.lastExpire = expire
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Credit{ID: "c1", Name: name, IssuerID: issuerEntityID,
		Series: series, AmountIssued: amount, DateExpire: expire}, nil
}

func (f *fakeStore) Transfer(fromAccountID, toAccountID, creditID string, amount decimal.Decimal, venueID string, redeem bool) (*domain.TransactionLog, error) {
	f.lastOp = "transfer"
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TransactionLog{ID: "t1", Amount: amount, Redeemed: redeem}, nil
}

func (f *fakeStore) Redeem(accountID, creditID string, amount decimal.Decimal, venueID string) (*domain.TransactionLog, error) {
	f.lastOp = "redeem"
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TransactionLog{ID: "t1", Amount: amount, Redeemed: true}, nil
}

func (f *fakeStore) Balance(accountID, creditID string) (decimal.Decimal, error) {
	f.lastOp = "balance"
	return decimal.RequireFromString("42"), f.err
}

func (f *fakeStore) Balances(accountID string) ([]domain.Holding, error) {
	f.lastOp = "balances"
	return nil, f.err
}

func (f *fakeStore) History(accountID string, since, until time.Time) ([]domain.TransactionLog, error) {
	f.lastOp = "history"
	return nil, f.err
}

// denyAll rejects every mutation.
type denyAll struct{}

func (denyAll) Authorize(string, domain.Operation, string) error {
	return domain.ErrPermissionDenied
}

// ─── Service Tests ──────────────────────────────────────────────────────────

func TestService_AuthorizerDenial(t *testing.T) {
	store := &fakeStore{}
	svc := New(DefaultConfig(), store, denyAll{}, nil)
	ctx := context.Background()

	_, err := svc.IssueCredit(ctx, "caller", "issuer", "Token", 1, decimal.RequireFromString("10"), time.Time{})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("issue err = %v, want ErrPermissionDenied", err)
	}
	_, err = svc.Transfer(ctx, "caller", "a1", "a2", "c1", decimal.RequireFromString("10"), "v1", false)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("transfer err = %v, want ErrPermissionDenied", err)
	}
	_, err = svc.Redeem(ctx, "caller", "a1", "c1", decimal.RequireFromString("10"), "v1")
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("redeem err = %v, want ErrPermissionDenied", err)
	}

	// A denied mutation never reaches the store.
	if store.lastOp != "" {
		t.Errorf("store called with %q after denial", store.lastOp)
	}
}

func TestService_ReadsSkipAuthorization(t *testing.T) {
	store := &fakeStore{}
	svc := New(DefaultConfig(), store, denyAll{}, nil)

	if _, err := svc.Balance("a1", "c1"); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if _, err := svc.Balances("a1"); err != nil {
		t.Fatalf("balances: %v", err)
	}
	if _, err := svc.History("a1", time.Time{}, time.Time{}); err != nil {
		t.Fatalf("history: %v", err)
	}
}

func TestService_DefaultExpiry(t *testing.T) {
	store := &fakeStore{}
	svc := New(Config{DefaultExpiry: 48 * time.Hour}, store, nil, nil)

	before := time.Now().UTC()
	_, err := svc.IssueCredit(context.Background(), "caller", "issuer", "Token", 1,
		decimal.RequireFromString("10"), time.Time{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	want := before.Add(48 * time.Hour)
	if store.lastExpire.Before(want) || store.lastExpire.After(want.Add(time.Minute)) {
		t.Errorf("expire = %s, want about %s", store.lastExpire, want)
	}

	// An explicit expiry passes through untouched.
	explicit := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.IssueCredit(context.Background(), "caller", "issuer", "Token", 2,
		decimal.RequireFromString("10"), explicit); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !store.lastExpire.Equal(explicit) {
		t.Errorf("expire = %s, want %s", store.lastExpire, explicit)
	}
}

func TestService_Tracing(t *testing.T) {
	store := &fakeStore{}
	tracer := observability.NewTracer(observability.TracerConfig{Enabled: true, MaxSpans: 16})
	svc := New(DefaultConfig(), store, nil, tracer)
	ctx := context.Background()

	if _, err := svc.Transfer(ctx, "caller", "a1", "a2", "c1",
		decimal.RequireFromString("10"), "v1", false); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	store.err = domain.ErrInsufficientBalance
	if _, err := svc.Transfer(ctx, "caller", "a1", "a2", "c1",
		decimal.RequireFromString("10"), "v1", false); err == nil {
		t.Fatal("expected store error to surface")
	}

	spans := tracer.Spans(0)
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	for _, span := range spans {
		if span.Operation != "ledger.transfer" {
			t.Errorf("span operation = %q, want ledger.transfer", span.Operation)
		}
	}
	if spans[0].Status != observability.SpanOK {
		t.Errorf("first span status = %v, want SpanOK", spans[0].Status)
	}
	if spans[1].Status != observability.SpanError {
		t.Errorf("second span status = %v, want SpanError", spans[1].Status)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrIssuanceDenied, "issuance_denied"},
		{domain.ErrCapExceeded, "cap_exceeded"},
		{domain.ErrInvalidAmount, "invalid_amount"},
		{domain.ErrInsufficientBalance, "insufficient_balance"},
		{domain.ErrExpiredCredit, "expired_credit"},
		{domain.ErrSelfTransfer, "self_transfer"},
		{domain.ErrConflict, "conflict"},
		{domain.ErrNotFound, "not_found"},
		{domain.ErrDuplicate, "duplicate"},
		{domain.ErrPermissionDenied, "permission_denied"},
		{domain.ErrInvariant, "invariant_violation"},
		{errors.New("boom"), "error"},
		// Wrapped sentinels still map to their label.
		{errors.Join(errors.New("context"), domain.ErrCapExceeded), "cap_exceeded"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
