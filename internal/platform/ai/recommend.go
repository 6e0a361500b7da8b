package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Item is one health record as the model sees it: an opaque ID plus a short
// description. Descriptions never include identity fields.
type Item struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// RecordSet groups the caller's active records by category.
type RecordSet struct {
	Conditions  []Item `json:"conditions"`
	Medications []Item `json:"medications"`
	Allergies   []Item `json:"allergies"`
	Lifestyle   *Item  `json:"lifestyle,omitempty"`
	Documents   []Item `json:"documents"`
}

// Judgment is the model's relevance call for one record.
type Judgment struct {
	IsRelevant bool   `json:"isRelevant"`
	Rationale  string `json:"rationale"`
}

type Recommendation struct {
	Items            map[string]Judgment
	OverallRationale string
}

type recommendResponse struct {
	Items []struct {
		ID         string `json:"id"`
		IsRelevant *bool  `json:"isRelevant"`
		Rationale  string `json:"rationale"`
	} `json:"items"`
	OverallRationale string `json:"overallRationale"`
}

// Recommend asks the model which records are relevant to an appointment in
// specialty. Items the model omits, or returns without a relevance flag, are
// absent from the result.
func (c *Client) Recommend(ctx context.Context, specialty string, records RecordSet) (*Recommendation, error) {
	recordsJSON, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}

	var resp recommendResponse
	if err := c.completeJSON(ctx, Request{Prompt: buildRecommendPrompt(specialty, string(recordsJSON))}, &resp); err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	known := make(map[string]bool)
	for _, group := range [][]Item{records.Conditions, records.Medications, records.Allergies, records.Documents} {
		for _, it := range group {
			known[it.ID] = true
		}
	}
	if records.Lifestyle != nil {
		known[records.Lifestyle.ID] = true
	}

	rec := &Recommendation{
		Items:            make(map[string]Judgment, len(resp.Items)),
		OverallRationale: strings.TrimSpace(resp.OverallRationale),
	}
	for _, it := range resp.Items {
		if !known[it.ID] || it.IsRelevant == nil {
			continue
		}
		rec.Items[it.ID] = Judgment{IsRelevant: *it.IsRelevant, Rationale: strings.TrimSpace(it.Rationale)}
	}
	return rec, nil
}

func buildRecommendPrompt(specialty, recordsJSON string) string {
	return fmt.Sprintf(`You are assisting a patient who is preparing to see a doctor.

Appointment specialty: %s

The patient's health records, grouped by category:
%s

For EVERY record above decide whether a %s specialist would find it clinically relevant for this appointment.
Output ONLY a valid JSON object matching this exact schema:
{
  "items": [
    {"id": "<record id>", "isRelevant": true, "rationale": "<one sentence>"}
  ],
  "overallRationale": "<two sentences explaining the selection>"
}

Rules:
- Return one entry per record id, using the ids exactly as given
- Current medications and allergies are usually relevant to any prescriber
- Keep every rationale under 25 words
- Output ONLY the JSON, no markdown, no explanations`, specialty, recordsJSON, specialty)
}
