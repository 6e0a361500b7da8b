package clinical

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Condition maps to the medical_condition table.
type Condition struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"userId"`
	Name          string     `db:"name" json:"name"`
	Status        string     `db:"status" json:"status"`
	Severity      *string    `db:"severity" json:"severity,omitempty"`
	DiagnosedDate *time.Time `db:"diagnosed_date" json:"diagnosedDate,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	IsActive      bool       `db:"is_active" json:"isActive"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Summary is the one-line description shown to the recommendation model and
// in profile summaries.
func (c *Condition) Summary() string {
	parts := []string{c.Status}
	if c.Severity != nil && *c.Severity != "" {
		parts = append(parts, *c.Severity)
	}
	return fmt.Sprintf("%s (%s)", c.Name, strings.Join(parts, ", "))
}

// ConditionInput is the request body for create and partial update. Nil
// fields are left unchanged on update.
type ConditionInput struct {
	Name          *string `json:"name"`
	Status        *string `json:"status"`
	Severity      *string `json:"severity"`
	DiagnosedDate *string `json:"diagnosedDate"`
	Notes         *string `json:"notes"`
}

// Allergy maps to the allergy table.
type Allergy struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"userId"`
	Allergen    string    `db:"allergen" json:"allergen"`
	AllergyType string    `db:"allergy_type" json:"allergyType"`
	Severity    *string   `db:"severity" json:"severity,omitempty"`
	Reaction    *string   `db:"reaction" json:"reaction,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

func (a *Allergy) Summary() string {
	s := fmt.Sprintf("%s allergy to %s", a.AllergyType, a.Allergen)
	if a.Severity != nil && *a.Severity != "" {
		s += ", " + strings.ReplaceAll(*a.Severity, "_", "-")
	}
	if a.Reaction != nil && *a.Reaction != "" {
		s += ", reaction: " + *a.Reaction
	}
	return s
}

type AllergyInput struct {
	Allergen    *string `json:"allergen"`
	AllergyType *string `json:"allergyType"`
	Severity    *string `json:"severity"`
	Reaction    *string `json:"reaction"`
	Notes       *string `json:"notes"`
}

// normalizeKey is the case-insensitive form used for duplicate detection.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
