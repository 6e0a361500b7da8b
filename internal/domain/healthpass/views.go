package healthpass

import (
	"time"

	"github.com/medpass/medpass/pkg/civil"
)

// OwnerItem is one record in the owner's view, with its frozen judgment and
// whether the clinician will see it.
type OwnerItem struct {
	Record     interface{} `json:"record"`
	IsRelevant bool        `json:"isRelevant"`
	Rationale  string      `json:"rationale"`
	IsEnabled  bool        `json:"isEnabled"`
}

type OwnerItems struct {
	Conditions  []OwnerItem `json:"conditions"`
	Medications []OwnerItem `json:"medications"`
	Allergies   []OwnerItem `json:"allergies"`
	Lifestyle   *OwnerItem  `json:"lifestyle"`
	Documents   []OwnerItem `json:"documents"`
}

// OwnerView is what the pass owner sees: the pass plus every current record
// so items can be re-toggled.
type OwnerView struct {
	*HealthPass
	Status string     `json:"status"`
	Items  OwnerItems `json:"items"`
}

func buildOwnerView(p *HealthPass, snap *snapshot, now time.Time) *OwnerView {
	v := &OwnerView{HealthPass: p, Status: p.EffectiveStatus(now)}
	for _, category := range categories {
		items := []OwnerItem{}
		for _, e := range snap.entries(category) {
			j := p.judgment(e.id)
			items = append(items, OwnerItem{
				Record:     e.record,
				IsRelevant: j.IsRelevant,
				Rationale:  j.Rationale,
				IsEnabled:  p.Toggles.Visible(category, e.id),
			})
		}
		switch category {
		case CategoryConditions:
			v.Items.Conditions = items
		case CategoryMedications:
			v.Items.Medications = items
		case CategoryAllergies:
			v.Items.Allergies = items
		case CategoryLifestyle:
			if len(items) > 0 {
				v.Items.Lifestyle = &items[0]
			}
		case CategoryDocuments:
			v.Items.Documents = items
		}
	}
	return v
}

// PreviewItem is one shared record as the clinician sees it.
type PreviewItem struct {
	Record    interface{} `json:"record"`
	Rationale string      `json:"rationale"`
	URL       string      `json:"url,omitempty"`
}

type Patient struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Age         *int   `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

type Appointment struct {
	Specialty string     `json:"specialty"`
	Date      *time.Time `json:"date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// Preview is the anonymous clinician view behind an access code.
type Preview struct {
	Patient          Patient       `json:"patient"`
	Appointment      Appointment   `json:"appointment"`
	Conditions       []PreviewItem `json:"conditions"`
	Medications      []PreviewItem `json:"medications"`
	Allergies        []PreviewItem `json:"allergies"`
	Lifestyle        *PreviewItem  `json:"lifestyle,omitempty"`
	Documents        []PreviewItem `json:"documents"`
	OverallRationale string        `json:"overallRationale"`
	ProfileSummary   string        `json:"profileSummary"`
	ExpiresAt        time.Time     `json:"expiresAt"`
}

func buildPatient(snap *snapshot, now time.Time) Patient {
	pt := Patient{Name: snap.user.FullName, DateOfBirth: civil.Format(snap.user.BirthDate)}
	if age := civil.Age(snap.user.BirthDate, now); age >= 0 {
		pt.Age = &age
	}
	if snap.user.Gender != nil {
		pt.Gender = *snap.user.Gender
	}
	return pt
}
