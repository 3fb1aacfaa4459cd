// Package ledger implements the prepaid credit balances backing every
// generation. All mutations are single atomic statements; the invariant that
// a balance is never observed negative holds under concurrent requests.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stylesnap/internal/domain"
	"stylesnap/internal/infra"
	"stylesnap/internal/sqlinline"
)

type Ledger struct {
	SQL infra.SQLExecutor

	// TrialCredits is granted once, when a user id is first seen.
	TrialCredits int
}

func New(sql infra.SQLExecutor, trialCredits int) *Ledger {
	return &Ledger{SQL: sql, TrialCredits: trialCredits}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.SQL.Exec(ctx, sqlinline.QCreateCreditBalances); err != nil {
		return fmt.Errorf("create credit_balances: %w", err)
	}
	if _, err := l.SQL.Exec(ctx, sqlinline.QCreatePurchases); err != nil {
		return fmt.Errorf("create purchases: %w", err)
	}
	return nil
}

// Balance returns the current balance for the user, creating the account on
// first contact.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	if err := l.ensureAccount(ctx, userID); err != nil {
		return 0, err
	}
	var balance int
	if err := l.SQL.QueryRow(ctx, sqlinline.QSelectBalance, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("select balance: %w", err)
	}
	return balance, nil
}

// TryDebit atomically checks and decrements the balance. On a shortfall it
// returns a domain.InsufficientCreditsError carrying the required and
// available amounts; the balance is left untouched.
func (l *Ledger) TryDebit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	if err := l.ensureAccount(ctx, userID); err != nil {
		return 0, err
	}
	var remaining int
	err := l.SQL.QueryRow(ctx, sqlinline.QDebitBalance, userID, amount).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("debit balance: %w", err)
	}
	available, berr := l.Balance(ctx, userID)
	if berr != nil {
		return 0, berr
	}
	return 0, &domain.InsufficientCreditsError{Required: amount, Available: available}
}

// Credit adds amount to the balance and returns the new balance. It is used
// for confirmed purchases and for refunding a debit after a provider failure.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if err := l.ensureAccount(ctx, userID); err != nil {
		return 0, err
	}
	var balance int
	if err := l.SQL.QueryRow(ctx, sqlinline.QCreditBalance, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}
	return balance, nil
}

// CreditPurchase credits a paid checkout session exactly once. The second
// and later calls for the same session id are no-ops reporting
// credited=false, which lets the webhook and the polled verify path race
// safely.
func (l *Ledger) CreditPurchase(ctx context.Context, sessionID, userID string, amount int, country string) (int, bool, error) {
	if sessionID == "" || userID == "" {
		return 0, false, fmt.Errorf("session id and user id are required")
	}
	if amount <= 0 {
		return 0, false, fmt.Errorf("purchase amount must be positive, got %d", amount)
	}
	if err := l.ensureAccount(ctx, userID); err != nil {
		return 0, false, err
	}
	var balance int
	err := l.SQL.QueryRow(ctx, sqlinline.QCreditPurchase, sessionID, userID, amount, country).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Session already credited.
			balance, berr := l.Balance(ctx, userID)
			return balance, false, berr
		}
		return 0, false, fmt.Errorf("credit purchase: %w", err)
	}
	return balance, true, nil
}

func (l *Ledger) ensureAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if _, err := l.SQL.Exec(ctx, sqlinline.QEnsureAccount, userID, l.TrialCredits); err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}
