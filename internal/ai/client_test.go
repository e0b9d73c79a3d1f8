package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/verdantapp/backend/internal/model"
)

// fakeGenerator replays canned responses and records every request.
type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	requests  [][]*genai.Content
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.requests = append(f.requests, contents)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return textResponse(""), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func toolCallResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{Name: name, Args: args}},
			}}},
		},
	}
}

func newTestClient(fake *fakeGenerator) *Client {
	return &Client{
		models: fake,
		model:  "gemini-test",
		retry: RetryConfig{
			MaxRetries:     1,
			InitialDelay:   time.Millisecond,
			MaxDelay:       5 * time.Millisecond,
			BackoffFactor:  2.0,
			JitterFraction: 0,
		},
		now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		log: zerolog.Nop(),
	}
}

func TestCategorizeParsesFencedJSON(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse("```json\n{\"isIncome\":false,\"category\":\"Food\",\"amount\":50,\"date\":\"2024-05-01\",\"description\":\"Coffee\"}\n```"),
	}}
	c := newTestClient(fake)

	got, err := c.Categorize(context.Background(), "spent 50 on coffee today")
	require.NoError(t, err)
	assert.False(t, got.IsIncome)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, 50.0, got.Amount)
	assert.Equal(t, "Coffee", got.Description)
}

func TestCategorizeServesCurrentTimeTool(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		toolCallResponse("getCurrentTime", map[string]any{"timezone": "Asia/Kolkata"}),
		textResponse(`{"isIncome":true,"category":"Salary","amount":50000,"date":"2024-05-01","description":"Monthly salary"}`),
	}}
	c := newTestClient(fake)

	got, err := c.Categorize(context.Background(), "got my salary today")
	require.NoError(t, err)
	assert.True(t, got.IsIncome)
	require.Len(t, fake.requests, 2)

	// Second request must carry the tool response with the clock resolved
	// in the requested timezone.
	second := fake.requests[1]
	require.GreaterOrEqual(t, len(second), 3)
	last := second[len(second)-1]
	require.Len(t, last.Parts, 1)
	fr := last.Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, "getCurrentTime", fr.Name)
	assert.Equal(t, "Asia/Kolkata", fr.Response["timezone"])
	assert.Contains(t, fr.Response["currentTime"], "+05:30")
}

func TestBulkCategorizeRejectsOversizedInputLocally(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"ascii", strings.Repeat("a", MaxBulkTextLen+1)},
		{"multibyte", strings.Repeat("₹", MaxBulkTextLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGenerator{}
			c := newTestClient(fake)

			_, err := c.BulkCategorize(context.Background(), tt.text)
			require.ErrorIs(t, err, ErrOversizedInput)
			assert.Empty(t, fake.requests, "oversized input must be rejected before any model call")
		})
	}
}

func TestBulkCategorizeAtLimit(t *testing.T) {
	// The limit counts characters, not bytes: a multibyte string at the
	// character limit passes even though its byte length is triple.
	tests := []struct {
		name string
		text string
	}{
		{"ascii", strings.Repeat("a", MaxBulkTextLen)},
		{"multibyte", strings.Repeat("₹", MaxBulkTextLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
				textResponse(`{"transactions":[{"isIncome":false,"category":"Groceries","amount":120.5,"date":"2024-04-30","description":"Supermarket"}]}`),
			}}
			c := newTestClient(fake)

			got, err := c.BulkCategorize(context.Background(), tt.text)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "Groceries", got[0].Category)
		})
	}
}

func TestGenerateInsightsIncludesHistoryInPrompt(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse(`{"summary":"You are doing great.","detailedAnalysis":"Top category: Food."}`),
	}}
	c := newTestClient(fake)

	txns := []*model.Transaction{
		{Date: time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC), Description: "Coffee", Amount: 50, Category: "Food"},
	}
	previous := []*model.Insight{
		{Summary: "Watch your dining spend.", DetailedAnalysis: "Dining is your top category.", CreatedAt: time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)},
	}

	draft, err := c.GenerateInsights(context.Background(), txns, previous)
	require.NoError(t, err)
	assert.Equal(t, "You are doing great.", draft.Summary)

	require.Len(t, fake.requests, 1)
	prompt := fake.requests[0][0].Parts[0].Text
	assert.Contains(t, prompt, "Coffee")
	assert.Contains(t, prompt, "Watch your dining spend.")
}

func TestGenerateInsightsRetriesIncompleteDraft(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse(`{"summary":"","detailedAnalysis":""}`),
		textResponse(`{"summary":"Better.","detailedAnalysis":"Full analysis."}`),
	}}
	c := newTestClient(fake)

	draft, err := c.GenerateInsights(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Better.", draft.Summary)
	assert.Len(t, fake.requests, 2)
}

func TestAskWithoutHistoryFallsBackToGeneralAdvice(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse("  Here is some general advice.\n"),
	}}
	c := newTestClient(fake)

	answer, err := c.Ask(context.Background(), "How do I save more?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Here is some general advice.", answer)

	prompt := fake.requests[0][0].Parts[0].Text
	assert.Contains(t, prompt, "you do not have access to their personal financial data")
	assert.Contains(t, prompt, "How do I save more?")
}

func TestAskWithHistoryIncludesTransactions(t *testing.T) {
	fake := &fakeGenerator{responses: []*genai.GenerateContentResponse{
		textResponse("You spent most on Food."),
	}}
	c := newTestClient(fake)

	txns := []*model.Transaction{
		{Date: time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC), Description: "Lunch", Amount: 300, Category: "Food"},
	}
	answer, err := c.Ask(context.Background(), "Where does my money go?", txns, nil)
	require.NoError(t, err)
	assert.Equal(t, "You spent most on Food.", answer)

	prompt := fake.requests[0][0].Parts[0].Text
	assert.Contains(t, prompt, "Lunch")
	assert.Contains(t, prompt, "₹300.00")
}

func TestModelErrorSurfacesAfterRetries(t *testing.T) {
	boom := errors.New("upstream 503")
	fake := &fakeGenerator{errs: []error{boom, boom}}
	c := newTestClient(fake)

	_, err := c.Categorize(context.Background(), "coffee 50")
	require.Error(t, err)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrModelUnavailable, svcErr.Code)
	assert.Len(t, fake.requests, 2)
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no language", "```\n[1,2]\n```", `[1,2]`},
		{"leading prose", "Here you go:\n{\"a\":1}", `{"a":1}`},
		{"array before object", `[{"a":1}]`, `[{"a":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}
