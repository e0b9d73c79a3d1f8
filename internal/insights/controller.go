// Package insights gates how often the insight-generation model may run.
// At most one insight is generated per user-perceived calendar day, and at
// most the 7 most recent are retained.
package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/verdantapp/backend/internal/ai"
	"github.com/verdantapp/backend/internal/model"
	"github.com/verdantapp/backend/internal/store"
)

const (
	// MinTransactions is the history size below which generation is skipped
	// and a static placeholder is shown instead.
	MinTransactions = 5

	// RetentionLimit caps how many insights are kept per user.
	RetentionLimit = 7
)

// Generator produces an insight draft from the user's history.
type Generator interface {
	GenerateInsights(ctx context.Context, txns []*model.Transaction, previous []*model.Insight) (*ai.InsightDraft, error)
}

// Controller decides whether to reuse, generate, or placeholder on each
// insights-page load.
type Controller struct {
	store store.Store
	gen   Generator
	now   func() time.Time
	log   zerolog.Logger
}

func New(s store.Store, g Generator, log zerolog.Logger) *Controller {
	return &Controller{
		store: s,
		gen:   g,
		now:   time.Now,
		log:   log.With().Str("component", "insights").Logger(),
	}
}

// Result is the outcome of one cadence evaluation.
type Result struct {
	// Insights to show, newest first. Placeholder and error insights appear
	// here without being persisted.
	Insights []*model.Insight
	// Generated reports whether a new insight was created this evaluation.
	Generated bool
}

// Evaluate runs the cadence decision for one user.
//
// Fewer than MinTransactions transactions: a static placeholder, nothing
// persisted. Latest insight already from today (in the user's stored
// timezone): reuse it. Otherwise generate with the full history and previous
// insights as context, persist, and prune the oldest while the count exceeds
// RetentionLimit. A generation failure yields a synthetic error insight that
// is never persisted.
func (c *Controller) Evaluate(ctx context.Context, userID string) (*Result, error) {
	txns, _, err := c.store.ListTransactions(ctx, userID, 0, "")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	existing, err := c.store.ListInsights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}

	now := c.now()
	if len(txns) < MinTransactions {
		return &Result{Insights: []*model.Insight{placeholderInsight(now)}}, nil
	}

	loc := c.userLocation(ctx, userID)
	if len(existing) > 0 && sameCalendarDay(existing[0].CreatedAt, now, loc) {
		return &Result{Insights: existing}, nil
	}

	draft, err := c.gen.GenerateInsights(ctx, txns, existing)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("insight generation failed")
		return &Result{Insights: []*model.Insight{errorInsight(now)}}, nil
	}

	if _, err := c.store.CreateInsight(ctx, userID, &model.Insight{
		Summary:          draft.Summary,
		DetailedAnalysis: draft.DetailedAnalysis,
	}); err != nil {
		return nil, fmt.Errorf("store insight: %w", err)
	}

	if err := c.prune(ctx, userID, existing); err != nil {
		return nil, err
	}

	updated, err := c.store.ListInsights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list insights after generation: %w", err)
	}
	c.log.Info().Str("user_id", userID).Int("retained", len(updated)).Msg("generated new insight")
	return &Result{Insights: updated, Generated: true}, nil
}

// prune removes the oldest insights until the retained count, including the
// one just created, is back within RetentionLimit.
func (c *Controller) prune(ctx context.Context, userID string, existing []*model.Insight) error {
	excess := len(existing) + 1 - RetentionLimit
	for i := 0; i < excess; i++ {
		oldest := existing[len(existing)-1-i]
		if err := c.store.DeleteInsight(ctx, userID, oldest.ID); err != nil {
			return fmt.Errorf("prune insight %s: %w", oldest.ID, err)
		}
	}
	return nil
}

// userLocation resolves the day boundary for the cadence comparison from the
// user's stored IANA timezone, falling back to UTC.
func (c *Controller) userLocation(ctx context.Context, userID string) *time.Location {
	profile, err := c.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("profile lookup failed, using UTC day boundary")
		}
		return time.UTC
	}
	if profile.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		c.log.Warn().Str("timezone", profile.Timezone).Str("user_id", userID).Msg("invalid stored timezone, using UTC day boundary")
		return time.UTC
	}
	return loc
}

func sameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func placeholderInsight(now time.Time) *model.Insight {
	return &model.Insight{
		ID:               "placeholder",
		Summary:          "Not enough data to generate insights.",
		DetailedAnalysis: "You need at least 5 transactions to get your first personalized insight. Keep adding your expenses!",
		CreatedAt:        now,
	}
}

func errorInsight(now time.Time) *model.Insight {
	return &model.Insight{
		ID:               "error",
		Summary:          "Error generating insights.",
		DetailedAnalysis: "We couldn't generate your insights at this time. Please try again later.",
		CreatedAt:        now,
	}
}
