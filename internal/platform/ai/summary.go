package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SummaryInput holds only what a pass makes visible. HasUnsharedRecords is
// set when at least one record exists that the pass hides.
type SummaryInput struct {
	Age                int                 `json:"age,omitempty"`
	Gender             string              `json:"gender,omitempty"`
	Specialty          string              `json:"specialty"`
	Visible            map[string][]string `json:"visibleRecords"`
	HasUnsharedRecords bool                `json:"hasUnsharedRecords"`
}

// Summarize writes a short clinical profile for the treating doctor.
func (c *Client) Summarize(ctx context.Context, in SummaryInput) (string, error) {
	inJSON, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary input: %w", err)
	}
	text, err := c.completer.Complete(ctx, Request{Prompt: buildSummaryPrompt(string(inJSON)), MaxTokens: 512})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summarize: empty summary")
	}
	return text, nil
}

func buildSummaryPrompt(inputJSON string) string {
	return fmt.Sprintf(`Write a brief patient profile (at most four sentences) for a doctor about to see this patient.

Patient data:
%s

Rules:
- Mention only the records listed under visibleRecords
- A category that is missing or empty means the patient chose not to share it, NOT that they have no history
- Never write phrases such as "no known allergies", "no medications" or "no conditions"
- If hasUnsharedRecords is true, say that additional records exist that were not shared
- Plain text only, no markdown, no headings`, inputJSON)
}
