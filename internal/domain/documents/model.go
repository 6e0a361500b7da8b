package documents

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medpass/medpass/pkg/civil"
)

// AISuggestion is the model-drafted metadata kept alongside the user's own.
type AISuggestion struct {
	Name         *string    `db:"ai_name" json:"name,omitempty"`
	Date         *time.Time `db:"ai_date" json:"date,omitempty"`
	Notes        *string    `db:"ai_notes" json:"notes,omitempty"`
	DocumentType *string    `db:"ai_document_type" json:"documentType,omitempty"`
	Confidence   *float64   `db:"ai_confidence" json:"confidence,omitempty"`
}

// Document maps to the document table. The file itself lives in the blob
// store under StorageKey.
type Document struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"userId"`
	StorageKey   string     `db:"storage_key" json:"-"`
	FileName     string     `db:"file_name" json:"fileName"`
	ContentType  string     `db:"content_type" json:"contentType"`
	SizeBytes    int64      `db:"size_bytes" json:"sizeBytes"`
	ContentHash  string     `db:"content_hash" json:"-"`
	Name         *string    `db:"name" json:"name,omitempty"`
	DocumentDate *time.Time `db:"document_date" json:"documentDate,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	DocumentType *string    `db:"document_type" json:"documentType,omitempty"`
	AISuggestion `json:"aiSuggested"`
	IsConfirmed  bool      `db:"is_confirmed" json:"isConfirmed"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// DisplayName is the confirmed name, the suggested one, or the file name.
func (d *Document) DisplayName() string {
	if d.Name != nil && *d.Name != "" {
		return *d.Name
	}
	if d.AISuggestion.Name != nil && *d.AISuggestion.Name != "" {
		return *d.AISuggestion.Name
	}
	return d.FileName
}

func (d *Document) Summary() string {
	var extra []string
	if d.DocumentType != nil {
		extra = append(extra, strings.ReplaceAll(*d.DocumentType, "_", " "))
	}
	if d.DocumentDate != nil {
		extra = append(extra, civil.Format(d.DocumentDate))
	}
	if len(extra) == 0 {
		return d.DisplayName()
	}
	return d.DisplayName() + " (" + strings.Join(extra, ", ") + ")"
}

// ConfirmInput is the user-approved metadata. Omitted fields take the
// suggested value.
type ConfirmInput struct {
	Name         *string `json:"name"`
	DocumentDate *string `json:"documentDate"`
	Notes        *string `json:"notes"`
	DocumentType *string `json:"documentType"`
}

// Upload is a file received from the client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SignedURL is a time-limited download link.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
