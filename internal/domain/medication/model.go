package medication

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Medication maps to the medication table.
type Medication struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"userId"`
	Name         string     `db:"name" json:"name"`
	Dosage       string     `db:"dosage" json:"dosage"`
	Frequency    *string    `db:"frequency" json:"frequency,omitempty"`
	StartDate    *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"endDate,omitempty"`
	PrescribedBy *string    `db:"prescribed_by" json:"prescribedBy,omitempty"`
	Reason       *string    `db:"reason" json:"reason,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

func (m *Medication) Summary() string {
	s := m.Name + " " + m.Dosage
	if m.Frequency != nil && *m.Frequency != "" {
		s += ", " + *m.Frequency
	}
	if m.Reason != nil && *m.Reason != "" {
		s += " (for " + *m.Reason + ")"
	}
	return s
}

// Input is the body of create and partial update requests.
type Input struct {
	Name         *string `json:"name"`
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	StartDate    *string `json:"startDate"`
	EndDate      *string `json:"endDate"`
	PrescribedBy *string `json:"prescribedBy"`
	Reason       *string `json:"reason"`
	Notes        *string `json:"notes"`
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
