// Package ai wraps the generative model used for identity card OCR, document
// metadata drafts, allergen classification, health pass recommendations and
// profile summaries. Every operation returns an error on failure; callers
// decide whether to fall back.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrUnavailable is returned by every operation when no API key is configured.
var ErrUnavailable = errors.New("ai: model not configured")

const defaultMaxTokens = 2048

// Attachment is an image or PDF sent alongside the prompt.
type Attachment struct {
	MediaType string
	Data      []byte
}

type Request struct {
	Prompt     string
	Attachment *Attachment
	MaxTokens  int64
}

// Completer sends one prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// AnthropicCompleter implements Completer with the Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	model  string
}

func NewAnthropicCompleter(apiKey, model string) *AnthropicCompleter {
	return &AnthropicCompleter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (a *AnthropicCompleter) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var blocks []anthropic.ContentBlockParamUnion
	if att := req.Attachment; att != nil {
		encoded := base64.StdEncoding.EncodeToString(att.Data)
		if att.MediaType == "application/pdf" {
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded}))
		} else {
			blocks = append(blocks, anthropic.NewImageBlockBase64(att.MediaType, encoded))
		}
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}
	return sb.String(), nil
}

type unavailableCompleter struct{}

func (unavailableCompleter) Complete(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}

// Client exposes the domain operations built on a Completer.
type Client struct {
	completer Completer
}

// NewClient returns a Client. A nil completer yields a client whose every
// call fails with ErrUnavailable.
func NewClient(c Completer) *Client {
	if c == nil {
		c = unavailableCompleter{}
	}
	return &Client{completer: c}
}

// completeJSON sends prompt and decodes the first JSON object in the reply
// into out.
func (c *Client) completeJSON(ctx context.Context, req Request, out interface{}) error {
	text, err := c.completer.Complete(ctx, req)
	if err != nil {
		return err
	}
	jsonStr, err := extractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// SupportedAttachment reports whether mediaType can be sent to the model.
func SupportedAttachment(mediaType string) bool {
	switch mediaType {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf":
		return true
	}
	return false
}
