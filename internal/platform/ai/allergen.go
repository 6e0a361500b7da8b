package ai

import (
	"context"
	"fmt"
	"strings"
)

// AllergyTypes is the closed set ClassifyAllergen returns from.
var AllergyTypes = []string{"food", "drug", "environmental", "insect", "latex", "other"}

func (c *Client) ClassifyAllergen(ctx context.Context, allergen string) (string, error) {
	var resp struct {
		Type string `json:"type"`
	}
	prompt := fmt.Sprintf(`Classify the allergen %q into exactly one of: %s.
Output ONLY a JSON object: {"type": "<one of the values>"}`, allergen, strings.Join(AllergyTypes, ", "))

	if err := c.completeJSON(ctx, Request{Prompt: prompt, MaxTokens: 64}, &resp); err != nil {
		return "", fmt.Errorf("classify allergen: %w", err)
	}
	t := strings.ToLower(strings.TrimSpace(resp.Type))
	for _, known := range AllergyTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("classify allergen: unknown type %q", resp.Type)
}
