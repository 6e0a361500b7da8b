package healthpass

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	StatusGenerated = "generated"
	StatusShared    = "shared"
	StatusExpired   = "expired"
)

// AccessTTL is how long an access code stays valid after creation.
const AccessTTL = 24 * time.Hour

// Record categories, as used in toggles and item toggle requests.
const (
	CategoryConditions  = "conditions"
	CategoryMedications = "medications"
	CategoryAllergies   = "allergies"
	CategoryLifestyle   = "lifestyle"
	CategoryDocuments   = "documents"
)

var validSpecialties = map[string]bool{
	"cardiology": true, "dermatology": true, "endocrinology": true, "gastroenterology": true,
	"general_practice": true, "gynecology": true, "nephrology": true, "neurology": true,
	"oncology": true, "ophthalmology": true, "orthopedics": true, "otolaryngology": true,
	"pediatrics": true, "psychiatry": true, "pulmonology": true, "rheumatology": true,
	"urology": true, "dentistry": true, "emergency": true, "other": true,
}

// Judgment is the frozen relevance call for one record.
type Judgment struct {
	IsRelevant bool   `json:"isRelevant"`
	Rationale  string `json:"rationale"`
}

// Recommendations is the snapshot taken when the pass was generated. It is
// never rewritten afterwards.
type Recommendations struct {
	Items            map[string]Judgment `json:"items"`
	OverallRationale string              `json:"overallRationale"`
}

// HealthPass maps to the health_pass table.
type HealthPass struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"userId"`
	Specialty        string          `json:"appointmentSpecialty"`
	AppointmentDate  *time.Time      `json:"appointmentDate,omitempty"`
	AppointmentNotes *string         `json:"appointmentNotes,omitempty"`
	AccessCode       string          `json:"accessCode"`
	QRCode           string          `json:"qrCode"`
	Status           string          `json:"status"`
	ExpiresAt        time.Time       `json:"expiresAt"`
	AccessCount      int             `json:"accessCount"`
	LastAccessedAt   *time.Time      `json:"lastAccessedAt,omitempty"`
	Toggles          Toggles         `json:"dataToggles"`
	Recommendations  Recommendations `json:"aiRecommendations"`
	ProfileSummary   string          `json:"profileSummary"`
	IsActive         bool            `json:"isActive"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// EffectiveStatus reports expired once the deadline has passed, even if no
// scan has recorded it yet.
func (p *HealthPass) EffectiveStatus(now time.Time) string {
	if p.Status != StatusExpired && now.After(p.ExpiresAt) {
		return StatusExpired
	}
	return p.Status
}

// judgment returns the frozen judgment for id, or a neutral one for records
// added after the pass was generated.
func (p *HealthPass) judgment(id uuid.UUID) Judgment {
	if j, ok := p.Recommendations.Items[id.String()]; ok {
		return j
	}
	return Judgment{Rationale: "Added after this pass was generated; not reviewed for relevance."}
}

// CreateInput is the body of POST /health-passes.
type CreateInput struct {
	AppointmentSpecialty string  `json:"appointmentSpecialty"`
	AppointmentDate      *string `json:"appointmentDate"`
	AppointmentNotes     *string `json:"appointmentNotes"`
}

// ToggleItemInput is the body of PATCH /health-passes/{id}/toggle-item.
type ToggleItemInput struct {
	ItemType  string    `json:"itemType"`
	ItemID    uuid.UUID `json:"itemId"`
	IsEnabled *bool     `json:"isEnabled"`
}

// TogglesInput is the body of PATCH /health-passes/{id}/toggles. Name,
// Gender and DateOfBirth are accepted but always stay true.
type TogglesInput struct {
	Name        *bool `json:"name"`
	Gender      *bool `json:"gender"`
	DateOfBirth *bool `json:"dateOfBirth"`
	Conditions  *bool `json:"conditions"`
	Medications *bool `json:"medications"`
	Allergies   *bool `json:"allergies"`
	Lifestyle   *bool `json:"lifestyle"`
	Documents   *bool `json:"documents"`
}
