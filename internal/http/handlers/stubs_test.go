package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"stylesnap/internal/infra"
	"stylesnap/internal/ledger"
	"stylesnap/internal/providers/replicate"
	"stylesnap/internal/providers/stripe"
	"stylesnap/internal/sqlinline"
)

// stubSQL reproduces the ledger statement semantics over an in-memory map,
// mirroring what the database guarantees. Handler tests wire a real Ledger
// on top of it.
type stubSQL struct {
	mu        sync.Mutex
	balances  map[string]int
	purchases map[string]int
}

func newStubSQL() *stubSQL {
	return &stubSQL{balances: make(map[string]int), purchases: make(map[string]int)}
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func scanInt(dest []any, value int) error {
	if len(dest) != 1 {
		return fmt.Errorf("unexpected scan args: %d", len(dest))
	}
	p, ok := dest[0].(*int)
	if !ok {
		return fmt.Errorf("unexpected scan dest type %T", dest[0])
	}
	*p = value
	return nil
}

func (s *stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch query {
	case sqlinline.QCreateCreditBalances, sqlinline.QCreatePurchases:
		return pgconn.CommandTag{}, nil
	case sqlinline.QEnsureAccount:
		userID := args[0].(string)
		if _, ok := s.balances[userID]; !ok {
			s.balances[userID] = args[1].(int)
		}
		return pgconn.CommandTag{}, nil
	default:
		return pgconn.CommandTag{}, fmt.Errorf("unsupported exec: %s", query)
	}
}

func (s *stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch query {
	case sqlinline.QSelectBalance:
		balance, ok := s.balances[args[0].(string)]
		if !ok {
			return stubRow{}
		}
		return stubRow{scan: func(dest ...any) error { return scanInt(dest, balance) }}
	case sqlinline.QDebitBalance:
		userID, amount := args[0].(string), args[1].(int)
		if s.balances[userID] < amount {
			return stubRow{}
		}
		s.balances[userID] -= amount
		remaining := s.balances[userID]
		return stubRow{scan: func(dest ...any) error { return scanInt(dest, remaining) }}
	case sqlinline.QCreditBalance:
		userID, amount := args[0].(string), args[1].(int)
		if _, ok := s.balances[userID]; !ok {
			return stubRow{}
		}
		s.balances[userID] += amount
		balance := s.balances[userID]
		return stubRow{scan: func(dest ...any) error { return scanInt(dest, balance) }}
	case sqlinline.QCreditPurchase:
		sessionID, userID, amount := args[0].(string), args[1].(string), args[2].(int)
		if _, dup := s.purchases[sessionID]; dup {
			return stubRow{}
		}
		s.purchases[sessionID] = amount
		s.balances[userID] += amount
		balance := s.balances[userID]
		return stubRow{scan: func(dest ...any) error { return scanInt(dest, balance) }}
	default:
		return stubRow{scan: func(...any) error { return fmt.Errorf("unsupported query: %s", query) }}
	}
}

func (s *stubSQL) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unsupported query: %s", query)
}

func (s *stubSQL) balance(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

var _ infra.SQLExecutor = (*stubSQL)(nil)

// fakeGenerator records the last input and returns canned output.
type fakeGenerator struct {
	lastInput replicate.GenerationInput
	outputs   []string
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, input replicate.GenerationInput) ([]string, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs, nil
}

// fakePayments serves canned sessions and records creation params.
type fakePayments struct {
	created    *stripe.CheckoutParams
	session    *stripe.CheckoutSession
	sessions   map[string]*stripe.CheckoutSession
	err        error
	retrievals int
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	f.created = &params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakePayments) CheckoutSession(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	f.retrievals++
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("stripe: no such session %s", id)
}

// memStore keeps uploads in a map and records removals.
type memStore struct {
	saved   map[string][]byte
	removed []string
	url     string // when set, PublicURL reports it
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string][]byte)}
}

func (m *memStore) Save(_ context.Context, hint string, data []byte, _ string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	ref := "uploads/" + hint
	m.saved[ref] = data
	return ref, nil
}

func (m *memStore) Remove(_ context.Context, ref string) error {
	m.removed = append(m.removed, ref)
	delete(m.saved, ref)
	return nil
}

func (m *memStore) PublicURL(ref string) (string, bool) {
	if m.url == "" {
		return "", false
	}
	return m.url + "/" + ref, true
}

func newTestApp(sql *stubSQL) *App {
	return &App{
		Logger: zerolog.Nop(),
		Ledger: ledger.New(sql, 0),
	}
}
