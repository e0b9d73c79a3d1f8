package insights

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantapp/backend/internal/ai"
	"github.com/verdantapp/backend/internal/model"
	"github.com/verdantapp/backend/internal/store"
)

type fakeGenerator struct {
	calls int
	draft *ai.InsightDraft
	err   error
}

func (f *fakeGenerator) GenerateInsights(_ context.Context, _ []*model.Transaction, _ []*model.Insight) (*ai.InsightDraft, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func seedTransactions(t *testing.T, s store.Store, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.CreateTransaction(context.Background(), userID, &model.Transaction{
			Date:        time.Date(2024, 4, 1+i, 0, 0, 0, 0, time.UTC),
			Description: fmt.Sprintf("Purchase %d", i),
			Amount:      10,
			Category:    "Other",
		})
		require.NoError(t, err)
	}
}

func TestEvaluateBelowMinimumShowsPlaceholderWithoutGenerating(t *testing.T) {
	s := store.NewMemoryStore()
	gen := &fakeGenerator{draft: &ai.InsightDraft{Summary: "s", DetailedAnalysis: "a"}}
	c := New(s, gen, zerolog.Nop())
	seedTransactions(t, s, "user-1", MinTransactions-1)

	res, err := c.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, res.Insights, 1)
	assert.Equal(t, "Not enough data to generate insights.", res.Insights[0].Summary)
	assert.False(t, res.Generated)
	assert.Zero(t, gen.calls)

	persisted, err := s.ListInsights(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, persisted, "placeholder must not be persisted")
}

func TestEvaluateGeneratesOncePerDay(t *testing.T) {
	s := store.NewMemoryStore()
	gen := &fakeGenerator{draft: &ai.InsightDraft{Summary: "Nice week.", DetailedAnalysis: "Food is your top category."}}
	c := New(s, gen, zerolog.Nop())
	seedTransactions(t, s, "user-1", MinTransactions)

	first, err := c.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, first.Generated)
	require.Len(t, first.Insights, 1)
	assert.Equal(t, "Nice week.", first.Insights[0].Summary)

	second, err := c.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, second.Generated)
	require.Len(t, second.Insights, 1)
	assert.Equal(t, first.Insights[0].ID, second.Insights[0].ID)
	assert.Equal(t, 1, gen.calls)
}

func TestEvaluatePrunesOldestBeyondRetention(t *testing.T) {
	s := store.NewMemoryStore()
	gen := &fakeGenerator{draft: &ai.InsightDraft{Summary: "Fresh.", DetailedAnalysis: "New analysis."}}
	c := New(s, gen, zerolog.Nop())
	seedTransactions(t, s, "user-1", MinTransactions)

	oldIDs := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		in, err := s.CreateInsight(context.Background(), "user-1", &model.Insight{
			Summary:          fmt.Sprintf("Day %d", i),
			DetailedAnalysis: "old",
			CreatedAt:        time.Date(2024, 4, 10+i, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		oldIDs = append(oldIDs, in.ID)
	}

	res, err := c.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, res.Generated)
	assert.Len(t, res.Insights, RetentionLimit)

	remaining := map[string]bool{}
	for _, in := range res.Insights {
		remaining[in.ID] = true
	}
	assert.False(t, remaining[oldIDs[0]], "oldest insight should be pruned")
	assert.False(t, remaining[oldIDs[1]], "second-oldest insight should be pruned")
	assert.Equal(t, "Fresh.", res.Insights[0].Summary)
}

func TestEvaluateDayBoundaryUsesStoredTimezone(t *testing.T) {
	// 20:30 UTC on May 1 is already May 2 in Asia/Kolkata. An insight from
	// 17:00 UTC the same day is May 1 in Kolkata, so a Kolkata user is stale
	// while a UTC user is up to date.
	now := time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC)
	lastCreated := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		timezone     string
		wantGenerate bool
	}{
		{"kolkata user crosses local midnight", "Asia/Kolkata", true},
		{"utc user still same day", "UTC", false},
		{"missing timezone falls back to utc", "", false},
		{"invalid timezone falls back to utc", "Not/AZone", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			gen := &fakeGenerator{draft: &ai.InsightDraft{Summary: "New day.", DetailedAnalysis: "a"}}
			c := New(s, gen, zerolog.Nop())
			c.now = func() time.Time { return now }

			seedTransactions(t, s, "user-1", MinTransactions)
			tz := tt.timezone
			require.NoError(t, s.UpdateProfile(context.Background(), "user-1", model.ProfilePatch{Timezone: &tz}))
			_, err := s.CreateInsight(context.Background(), "user-1", &model.Insight{
				Summary: "Yesterday.", DetailedAnalysis: "a", CreatedAt: lastCreated,
			})
			require.NoError(t, err)

			res, err := c.Evaluate(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantGenerate, res.Generated)
			if tt.wantGenerate {
				assert.Equal(t, 1, gen.calls)
			} else {
				assert.Zero(t, gen.calls)
				assert.Equal(t, "Yesterday.", res.Insights[0].Summary)
			}
		})
	}
}

func TestEvaluateGenerationFailureIsNotPersisted(t *testing.T) {
	s := store.NewMemoryStore()
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	c := New(s, gen, zerolog.Nop())
	seedTransactions(t, s, "user-1", MinTransactions)

	res, err := c.Evaluate(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, res.Generated)
	require.Len(t, res.Insights, 1)
	assert.Equal(t, "Error generating insights.", res.Insights[0].Summary)

	persisted, err := s.ListInsights(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, persisted)
}
