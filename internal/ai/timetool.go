package ai

import (
	"time"

	"google.golang.org/genai"
)

// currentTimeTool lets the model resolve relative dates like "today" or
// "yesterday" against the wall clock.
var currentTimeTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        "getCurrentTime",
			Description: `Gets the current date and time. Use this to resolve relative times like "today" or "now".`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"timezone": {
						Type:        genai.TypeString,
						Description: "IANA timezone identifier (e.g., America/New_York, Asia/Kolkata). Defaults to UTC.",
					},
				},
			},
		},
	},
}

// resolveCurrentTime answers a getCurrentTime call. Unknown timezones fall
// back to UTC rather than failing the whole categorization.
func resolveCurrentTime(now time.Time, timezone string) map[string]any {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return map[string]any{
		"currentTime": now.In(loc).Format(time.RFC3339),
		"timezone":    timezone,
	}
}
