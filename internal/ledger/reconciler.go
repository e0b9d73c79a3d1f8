// Package ledger implements the balance reconciliation protocol: every
// transaction mutation is paired with an incremental update of the
// profile's cached balance.
//
// The store offers per-document atomicity only, so each operation here is
// a short sequence of independent writes. A failure aborts the remaining
// steps without compensating the ones that already landed; the cached
// balance and the transaction set can therefore drift apart under partial
// failure. That trade-off is part of the protocol's contract and is pinned
// down by the package tests.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/verdantapp/backend/internal/model"
	"github.com/verdantapp/backend/internal/store"
)

// Reconciler applies transaction mutations and keeps the cached balance in
// step with them.
type Reconciler struct {
	store store.Store
	log   zerolog.Logger
}

// New creates a Reconciler on top of the given store.
func New(s store.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: s, log: log.With().Str("component", "ledger").Logger()}
}

// ApplyResult is the outcome of a single applied mutation.
type ApplyResult struct {
	// Transaction is the persisted record. Nil on the income path, which
	// adjusts the balance without writing a line item.
	Transaction *model.Transaction
	NewBalance  float64
	Message     string
}

// BulkResult is the outcome of a bulk import.
type BulkResult struct {
	Added      int
	NewBalance float64
	Message    string
}

// ApplyCategorized applies one AI-categorized transaction.
//
// Income adjusts the balance only: no transaction record is written. This
// asymmetry with the expense path (and with bulk import, which persists
// income rows) is carried over from the product's observed behavior.
func (r *Reconciler) ApplyCategorized(ctx context.Context, userID string, ct *model.CategorizedTransaction) (*ApplyResult, error) {
	if err := validateCategorized(ct); err != nil {
		return nil, err
	}

	balance, err := r.currentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ct.IsIncome {
		newBalance := add(balance, ct.Amount)
		if err := r.writeBalance(ctx, userID, newBalance); err != nil {
			return nil, err
		}
		r.log.Info().Str("user", userID).Float64("amount", ct.Amount).Float64("balance", newBalance).Msg("income applied")
		return &ApplyResult{
			NewBalance: newBalance,
			Message: fmt.Sprintf("Income of ₹%s detected. Your balance has been updated to ₹%s.",
				money(ct.Amount), money(newBalance)),
		}, nil
	}

	date, err := ParseDate(ct.Date)
	if err != nil {
		return nil, err
	}

	created, err := r.store.CreateTransaction(ctx, userID, &model.Transaction{
		Date:        date,
		Description: ct.Description,
		Amount:      ct.Amount,
		Category:    ct.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	newBalance := sub(balance, ct.Amount)
	if err := r.writeBalance(ctx, userID, newBalance); err != nil {
		// The transaction is already persisted; the cached balance now
		// lags it until the next successful balance write.
		r.log.Error().Err(err).Str("user", userID).Str("transaction", created.ID).Msg("balance write failed after transaction write")
		return nil, err
	}

	r.log.Info().Str("user", userID).Str("transaction", created.ID).Float64("balance", newBalance).Msg("expense applied")
	return &ApplyResult{
		Transaction: created,
		NewBalance:  newBalance,
		Message: fmt.Sprintf("Expense of ₹%s added. Your new balance is ₹%s.",
			money(ct.Amount), money(newBalance)),
	}, nil
}

// ApplyManual applies a manually entered transaction. Manual entries are
// always expenses: the record is written first, then the balance is
// read-modified-written in a separate step.
func (r *Reconciler) ApplyManual(ctx context.Context, userID, description string, amount float64, date time.Time, category string) (*ApplyResult, error) {
	if err := validateFields(description, amount, category); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, invalidf("date", "date is required")
	}

	created, err := r.store.CreateTransaction(ctx, userID, &model.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	balance, err := r.currentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	newBalance := sub(balance, amount)
	if err := r.writeBalance(ctx, userID, newBalance); err != nil {
		return nil, err
	}

	return &ApplyResult{
		Transaction: created,
		NewBalance:  newBalance,
		Message:     "Transaction added successfully.",
	}, nil
}

// ApplyEdit updates a transaction record in place. The cached balance is
// not recomputed: editing an amount leaves the balance reflecting the old
// value. Known drift, preserved deliberately.
func (r *Reconciler) ApplyEdit(ctx context.Context, userID, transactionID string, patch store.TransactionPatch) error {
	if transactionID == "" {
		return invalidf("transactionId", "transaction ID is required")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return invalidf("description", "description is required")
	}
	if patch.Amount != nil && *patch.Amount <= 0 {
		return invalidf("amount", "amount must be greater than 0")
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		return invalidf("category", "category is required")
	}

	if err := r.store.UpdateTransaction(ctx, userID, transactionID, patch); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// ApplyDelete removes a transaction record. The cached balance is not
// adjusted; same documented drift as ApplyEdit.
func (r *Reconciler) ApplyDelete(ctx context.Context, userID, transactionID string) error {
	if userID == "" || transactionID == "" {
		return invalidf("transactionId", "user and transaction ID are required")
	}
	if err := r.store.DeleteTransaction(ctx, userID, transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ApplyBulkImport persists the given categorized transactions in order and
// then applies the net delta to the balance in a single final write.
//
// If a per-item write fails the remaining items are not written, the
// already-written items are not rolled back, and the balance is not
// adjusted for the partial subset. Retrying the same batch duplicates the
// items that succeeded the first time; there is no idempotency key.
func (r *Reconciler) ApplyBulkImport(ctx context.Context, userID string, items []*model.CategorizedTransaction) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, invalidf("transactions", "no transactions to import")
	}
	dates := make([]time.Time, len(items))
	for i, ct := range items {
		if err := validateCategorized(ct); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		date, err := ParseDate(ct.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		dates[i] = date
	}

	totalIncome := decimal.Zero
	totalExpense := decimal.Zero
	for i, ct := range items {
		// Unlike the single-transaction path, bulk import persists income
		// rows as well.
		if _, err := r.store.CreateTransaction(ctx, userID, &model.Transaction{
			Date:        dates[i],
			Description: ct.Description,
			Amount:      ct.Amount,
			Category:    ct.Category,
		}); err != nil {
			r.log.Error().Err(err).Str("user", userID).Int("written", i).Int("total", len(items)).Msg("bulk import aborted mid-batch")
			return nil, fmt.Errorf("failed to create transaction: %w", err)
		}
		amt := decimal.NewFromFloat(ct.Amount)
		if ct.IsIncome {
			totalIncome = totalIncome.Add(amt)
		} else {
			totalExpense = totalExpense.Add(amt)
		}
	}

	balance, err := r.currentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	newBalance, _ := decimal.NewFromFloat(balance).Add(totalIncome).Sub(totalExpense).Float64()
	if err := r.writeBalance(ctx, userID, newBalance); err != nil {
		return nil, err
	}

	r.log.Info().Str("user", userID).Int("count", len(items)).Float64("balance", newBalance).Msg("bulk import applied")
	return &BulkResult{
		Added:      len(items),
		NewBalance: newBalance,
		Message:    fmt.Sprintf("%d transactions added successfully.", len(items)),
	}, nil
}

// currentBalance reads the profile balance, defaulting to 0 when the user
// has no profile document yet.
func (r *Reconciler) currentBalance(ctx context.Context, userID string) (float64, error) {
	profile, err := r.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read profile: %w", err)
	}
	return profile.Balance, nil
}

func (r *Reconciler) writeBalance(ctx context.Context, userID string, balance float64) error {
	if err := r.store.UpdateProfile(ctx, userID, model.ProfilePatch{Balance: &balance}); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func validateCategorized(ct *model.CategorizedTransaction) error {
	if ct == nil {
		return invalidf("transaction", "transaction is required")
	}
	if err := validateFields(ct.Description, ct.Amount, ct.Category); err != nil {
		return err
	}
	if strings.TrimSpace(ct.Date) == "" {
		return invalidf("date", "date is required")
	}
	return nil
}

func validateFields(description string, amount float64, category string) error {
	if strings.TrimSpace(description) == "" {
		return invalidf("description", "description is required")
	}
	if amount <= 0 {
		return invalidf("amount", "amount must be greater than 0")
	}
	if strings.TrimSpace(category) == "" {
		return invalidf("category", "category is required")
	}
	return nil
}

// ParseDate accepts the ISO forms the categorization service emits.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidf("date", "unparseable date %q", s)
}

// add and sub route float64 balances through decimal so repeated updates
// don't accumulate binary rounding error.
func add(balance, amount float64) float64 {
	f, _ := decimal.NewFromFloat(balance).Add(decimal.NewFromFloat(amount)).Float64()
	return f
}

func sub(balance, amount float64) float64 {
	f, _ := decimal.NewFromFloat(balance).Sub(decimal.NewFromFloat(amount)).Float64()
	return f
}

// money formats an amount with exactly two decimal places.
func money(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}
