package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// IDCard holds the fields read from a national identity card.
type IDCard struct {
	FullName     string `json:"fullName"`
	GovernmentID string `json:"governmentId"`
	BirthDate    string `json:"birthDate"`
	BirthPlace   string `json:"birthPlace,omitempty"`
	FatherName   string `json:"fatherName,omitempty"`
	MotherName   string `json:"motherName,omitempty"`
	Gender       string `json:"gender,omitempty"`
}

// ExtractIDCard reads identity fields from a photo of an ID card. Missing
// fields come back empty; the caller decides which are mandatory.
func (c *Client) ExtractIDCard(ctx context.Context, img Attachment) (*IDCard, error) {
	if !SupportedAttachment(img.MediaType) {
		return nil, fmt.Errorf("extract id card: unsupported media type %q", img.MediaType)
	}
	var card IDCard
	if err := c.completeJSON(ctx, Request{Prompt: idCardPrompt, Attachment: &img, MaxTokens: 512}, &card); err != nil {
		return nil, fmt.Errorf("extract id card: %w", err)
	}
	card.FullName = strings.TrimSpace(card.FullName)
	card.GovernmentID = strings.TrimSpace(card.GovernmentID)
	card.BirthDate = strings.TrimSpace(card.BirthDate)
	card.Gender = strings.ToLower(strings.TrimSpace(card.Gender))
	return &card, nil
}

const idCardPrompt = `The attached image is a national identity card.
Read it and output ONLY a JSON object matching this exact schema:
{
  "fullName": "<given names and surname>",
  "governmentId": "<national identification number>",
  "birthDate": "<YYYY-MM-DD>",
  "birthPlace": "<place of birth or empty>",
  "fatherName": "<father's name or empty>",
  "motherName": "<mother's name or empty>",
  "gender": "<male|female|other or empty>"
}
Use an empty string for any field you cannot read. Do not guess.`

// DocumentTypes is the closed set of document categories.
var DocumentTypes = []string{
	"lab_result", "prescription", "imaging", "discharge_summary",
	"consultation_note", "vaccination", "insurance", "other",
}

// DocumentDraft is the model's suggested metadata for an uploaded document.
type DocumentDraft struct {
	Name         string     `json:"name"`
	Date         *time.Time `json:"-"`
	RawDate      string     `json:"date"`
	Notes        string     `json:"notes"`
	DocumentType string     `json:"documentType"`
	Confidence   float64    `json:"confidence"`
}

// AnalyzeDocument drafts metadata for an uploaded medical document. Files
// the model cannot read are judged by name alone.
func (c *Client) AnalyzeDocument(ctx context.Context, fileName string, file Attachment) (*DocumentDraft, error) {
	req := Request{Prompt: buildDocumentPrompt(fileName), MaxTokens: 512}
	if SupportedAttachment(file.MediaType) {
		req.Attachment = &file
	}

	var d DocumentDraft
	if err := c.completeJSON(ctx, req, &d); err != nil {
		return nil, fmt.Errorf("analyze document: %w", err)
	}

	d.Name = strings.TrimSpace(d.Name)
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(d.RawDate)); err == nil {
		d.Date = &t
	}
	d.DocumentType = normalizeDocumentType(d.DocumentType)
	switch {
	case d.Confidence < 0:
		d.Confidence = 0
	case d.Confidence > 1:
		d.Confidence = 1
	}
	return &d, nil
}

func normalizeDocumentType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	for _, known := range DocumentTypes {
		if t == known {
			return t
		}
	}
	return "other"
}

func buildDocumentPrompt(fileName string) string {
	return fmt.Sprintf(`A patient uploaded a medical document named %q.
Output ONLY a JSON object matching this exact schema:
{
  "name": "<short descriptive title>",
  "date": "<YYYY-MM-DD date of the document or empty>",
  "notes": "<one or two sentence description of the content>",
  "documentType": "<one of: %s>",
  "confidence": <number between 0 and 1>
}`, fileName, strings.Join(DocumentTypes, ", "))
}
