package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantapp/backend/internal/model"
)

func TestProfileLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	name := "Priya"
	balance := 1500.0
	require.NoError(t, s.UpdateProfile(ctx, "user-1", model.ProfilePatch{DisplayName: &name, Balance: &balance}))

	profile, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UID)
	assert.Equal(t, "Priya", profile.DisplayName)
	assert.Equal(t, 1500.0, profile.Balance)

	// Merge semantics: a later patch must not clear untouched fields.
	tz := "Asia/Kolkata"
	require.NoError(t, s.UpdateProfile(ctx, "user-1", model.ProfilePatch{Timezone: &tz}))

	profile, err = s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Priya", profile.DisplayName)
	assert.Equal(t, 1500.0, profile.Balance)
	assert.Equal(t, "Asia/Kolkata", profile.Timezone)
}

func TestTransactionCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, "user-1", &model.Transaction{
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Description: "Coffee",
		Amount:      50,
		Category:    "Food",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetTransaction(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Description)

	newDesc := "Espresso"
	require.NoError(t, s.UpdateTransaction(ctx, "user-1", created.ID, TransactionPatch{Description: &newDesc}))
	got, err = s.GetTransaction(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Espresso", got.Description)
	assert.Equal(t, 50.0, got.Amount)

	require.NoError(t, s.DeleteTransaction(ctx, "user-1", created.ID))
	_, err = s.GetTransaction(ctx, "user-1", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "user-1", created.ID), ErrNotFound)
}

func TestListTransactionsOrderAndPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.CreateTransaction(ctx, "user-1", &model.Transaction{
			Date:        time.Date(2024, 5, 1+i, 0, 0, 0, 0, time.UTC),
			Description: fmt.Sprintf("Item %d", i),
			Amount:      10,
			Category:    "Other",
		})
		require.NoError(t, err)
	}

	// Full history, newest first.
	all, token, err := s.ListTransactions(ctx, "user-1", 0, "")
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Empty(t, token)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Date.After(all[i-1].Date), "transactions must be date-descending")
	}

	// Paged walk sees every transaction exactly once.
	seen := map[string]bool{}
	pageToken := ""
	for {
		page, next, err := s.ListTransactions(ctx, "user-1", 2, pageToken)
		require.NoError(t, err)
		for _, tx := range page {
			assert.False(t, seen[tx.ID], "transaction %s returned twice", tx.ID)
			seen[tx.ID] = true
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	assert.Len(t, seen, 5)
}

func TestCountTransactions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.CountTransactions(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 3; i++ {
		_, err := s.CreateTransaction(ctx, "user-1", &model.Transaction{
			Date: time.Now(), Description: "x", Amount: 1, Category: "Other",
		})
		require.NoError(t, err)
	}

	n, err = s.CountTransactions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestInsightLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	older, err := s.CreateInsight(ctx, "user-1", &model.Insight{
		Summary: "Old", DetailedAnalysis: "a",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	newer, err := s.CreateInsight(ctx, "user-1", &model.Insight{
		Summary: "New", DetailedAnalysis: "b",
		CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	insights, err := s.ListInsights(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Equal(t, newer.ID, insights[0].ID, "insights must be newest first")
	assert.Equal(t, older.ID, insights[1].ID)

	require.NoError(t, s.DeleteInsight(ctx, "user-1", older.ID))
	insights, err = s.ListInsights(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, insights, 1)

	assert.ErrorIs(t, s.DeleteInsight(ctx, "user-1", older.ID), ErrNotFound)
}

// The cadence controller creates insights with a zero CreatedAt and relies
// on the store to stamp them; an unstamped insight would sort last and
// defeat the once-per-day check. Firestore does this via the
// serverTimestamp tag, the memory store must match.
func TestCreateInsightStampsCreatedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.CreateInsight(ctx, "user-1", &model.Insight{
		Summary: "Fresh", DetailedAnalysis: "a",
	})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	// An explicit CreatedAt is preserved as-is.
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	kept, err := s.CreateInsight(ctx, "user-1", &model.Insight{
		Summary: "Backdated", DetailedAnalysis: "b", CreatedAt: at,
	})
	require.NoError(t, err)
	assert.True(t, kept.CreatedAt.Equal(at))

	insights, err := s.ListInsights(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, insights, 2)
	assert.Equal(t, created.ID, insights[0].ID, "freshly stamped insight must sort first")
}

func TestUsersAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateTransaction(ctx, "user-1", &model.Transaction{
		Date: time.Now(), Description: "Mine", Amount: 10, Category: "Other",
	})
	require.NoError(t, err)

	other, _, err := s.ListTransactions(ctx, "user-2", 0, "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPageTokenRoundTrip(t *testing.T) {
	token := EncodePageToken("doc-123")
	require.NotEmpty(t, token)
	assert.NotEqual(t, "doc-123", token)

	id, err := DecodePageToken(token)
	require.NoError(t, err)
	assert.Equal(t, "doc-123", id)

	id, err = DecodePageToken("")
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = DecodePageToken("not-base64!!!")
	assert.Error(t, err)
}
