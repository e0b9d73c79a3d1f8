// Package ai wraps the Gemini API behind the assistant operations the app
// needs: single and bulk transaction categorization, spending insight
// generation, and conversational Q&A.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/verdantapp/backend/internal/model"
)

// maxToolTurns bounds the function-calling loop.
const maxToolTurns = 4

// generator is the slice of the genai client the assistant uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// InsightDraft is a freshly generated, not yet persisted insight.
type InsightDraft struct {
	Summary          string `json:"summary"`
	DetailedAnalysis string `json:"detailedAnalysis"`
}

// Client talks to Gemini. All methods retry transient failures with
// exponential backoff.
type Client struct {
	models generator
	model  string
	retry  RetryConfig
	now    func() time.Time
	log    zerolog.Logger
}

// NewClient creates a Gemini-backed assistant client. The API key is read
// from the environment by the genai SDK (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewClient(ctx context.Context, modelName string, log zerolog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		models: gc.Models,
		model:  modelName,
		retry:  DefaultGeminiRetryConfig,
		now:    time.Now,
		log:    log.With().Str("component", "ai").Logger(),
	}, nil
}

// Categorize extracts a single structured transaction from a natural
// language description.
func (c *Client) Categorize(ctx context.Context, details string) (*model.CategorizedTransaction, error) {
	prompt := fmt.Sprintf(categorizePrompt, details)
	cfg := &genai.GenerateContentConfig{Tools: []*genai.Tool{currentTimeTool}}

	return WithRetry(ctx, c.retry, func(ctx context.Context) (*model.CategorizedTransaction, error) {
		text, err := c.generate(ctx, prompt, cfg)
		if err != nil {
			return nil, err
		}
		var out model.CategorizedTransaction
		if err := json.Unmarshal([]byte(cleanModelJSON(text)), &out); err != nil {
			return nil, badResponse("categorize", text, err)
		}
		return &out, nil
	})
}

// BulkCategorize extracts every transaction it can find in a free-form text
// blob. Input longer than MaxBulkTextLen characters is rejected without a
// model call.
func (c *Client) BulkCategorize(ctx context.Context, bulkText string) ([]*model.CategorizedTransaction, error) {
	if utf8.RuneCountInString(bulkText) > MaxBulkTextLen {
		return nil, ErrOversizedInput
	}

	prompt := fmt.Sprintf(bulkCategorizePrompt, bulkText)
	cfg := &genai.GenerateContentConfig{Tools: []*genai.Tool{currentTimeTool}}

	return WithRetry(ctx, c.retry, func(ctx context.Context) ([]*model.CategorizedTransaction, error) {
		text, err := c.generate(ctx, prompt, cfg)
		if err != nil {
			return nil, err
		}
		var out struct {
			Transactions []*model.CategorizedTransaction `json:"transactions"`
		}
		if err := json.Unmarshal([]byte(cleanModelJSON(text)), &out); err != nil {
			return nil, badResponse("bulk categorize", text, err)
		}
		c.log.Debug().Int("input_chars", len(bulkText)).Int("transactions", len(out.Transactions)).Msg("bulk categorization complete")
		return out.Transactions, nil
	})
}

// GenerateInsights produces a spending summary and detailed analysis from the
// user's transaction history, with previous insights as context so the model
// can track the user's journey instead of repeating itself.
func (c *Client) GenerateInsights(ctx context.Context, txns []*model.Transaction, previous []*model.Insight) (*InsightDraft, error) {
	var b strings.Builder
	fmt.Fprintf(&b, insightsPromptHeader, formatTransactions(txns))
	if len(previous) > 0 {
		fmt.Fprintf(&b, insightsPromptHistory, formatInsights(previous))
	}
	b.WriteString(insightsPromptInstructions)

	return WithRetry(ctx, c.retry, func(ctx context.Context) (*InsightDraft, error) {
		text, err := c.generate(ctx, b.String(), nil)
		if err != nil {
			return nil, err
		}
		var draft InsightDraft
		if err := json.Unmarshal([]byte(cleanModelJSON(text)), &draft); err != nil {
			return nil, badResponse("generate insights", text, err)
		}
		if draft.Summary == "" || draft.DetailedAnalysis == "" {
			return nil, &ServiceError{Code: ErrBadResponse, Message: "insight response missing summary or analysis", Retryable: true}
		}
		return &draft, nil
	})
}

// Ask answers a free-form question about the user's finances. When no
// transaction history is available the model gives general advice instead.
func (c *Client) Ask(ctx context.Context, question string, txns []*model.Transaction, insights []*model.Insight) (string, error) {
	var prompt string
	if len(txns) == 0 {
		prompt = fmt.Sprintf(askWithoutDataPrompt, question)
	} else {
		history := ""
		if len(insights) > 0 {
			history = "\nPrevious Insights You've Provided:\n" + formatInsights(insights)
		}
		prompt = fmt.Sprintf(askWithDataPrompt, question, formatTransactions(txns), history)
	}

	return WithRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
		text, err := c.generate(ctx, prompt, nil)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	})
}

// generate runs one prompt to completion, serving getCurrentTime tool calls
// until the model produces text.
func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	for turn := 0; turn < maxToolTurns; turn++ {
		resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
		if err != nil {
			return "", &ServiceError{Code: ErrModelUnavailable, Message: "generate content", Retryable: true, Cause: err}
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if text == "" {
				return "", &ServiceError{Code: ErrEmptyResponse, Message: "empty response from model", Retryable: true}
			}
			return text, nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: c.dispatchTool(call),
				},
			})
		}
		contents = append(contents, &genai.Content{Role: "user", Parts: parts})
	}

	return "", &ServiceError{Code: ErrBadResponse, Message: fmt.Sprintf("model kept calling tools after %d turns", maxToolTurns)}
}

func (c *Client) dispatchTool(call *genai.FunctionCall) map[string]any {
	switch call.Name {
	case "getCurrentTime":
		tz, _ := call.Args["timezone"].(string)
		c.log.Debug().Str("timezone", tz).Msg("getCurrentTime tool called")
		return resolveCurrentTime(c.now(), tz)
	default:
		return map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
	}
}

func badResponse(op, raw string, err error) *ServiceError {
	snippet := raw
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	return &ServiceError{
		Code:      ErrBadResponse,
		Message:   fmt.Sprintf("%s: unmarshal model output (raw: %s)", op, snippet),
		Retryable: true,
		Cause:     err,
	}
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the strict-JSON instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if there's still text around it.
	opener, closer := "{", "}"
	if arr := strings.Index(s, "["); arr != -1 {
		if obj := strings.Index(s, "{"); obj == -1 || arr < obj {
			opener, closer = "[", "]"
		}
	}
	if start := strings.Index(s, opener); start != -1 {
		if end := strings.LastIndex(s, closer); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
