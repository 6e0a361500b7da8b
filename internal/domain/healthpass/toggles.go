package healthpass

import (
	"github.com/google/uuid"
)

// Toggles is a pass's visibility manifest. A category boolean decides whether
// the category is rendered at all; the Specific* lists decide which records
// within it. Lifestyle is a single record and has only the boolean.
type Toggles struct {
	Name                bool        `json:"name"`
	Gender              bool        `json:"gender"`
	DateOfBirth         bool        `json:"dateOfBirth"`
	Conditions          bool        `json:"conditions"`
	Medications         bool        `json:"medications"`
	Allergies           bool        `json:"allergies"`
	Lifestyle           bool        `json:"lifestyle"`
	Documents           bool        `json:"documents"`
	SpecificConditions  []uuid.UUID `json:"specificConditions"`
	SpecificMedications []uuid.UUID `json:"specificMedications"`
	SpecificAllergies   []uuid.UUID `json:"specificAllergies"`
	SpecificDocuments   []uuid.UUID `json:"specificDocuments"`
}

// normalize pins the identity fields and replaces nil lists so the stored
// JSON always has arrays.
func (t *Toggles) normalize() {
	t.Name, t.Gender, t.DateOfBirth = true, true, true
	for _, l := range []*[]uuid.UUID{&t.SpecificConditions, &t.SpecificMedications, &t.SpecificAllergies, &t.SpecificDocuments} {
		if *l == nil {
			*l = []uuid.UUID{}
		}
	}
}

func (t *Toggles) list(category string) *[]uuid.UUID {
	switch category {
	case CategoryConditions:
		return &t.SpecificConditions
	case CategoryMedications:
		return &t.SpecificMedications
	case CategoryAllergies:
		return &t.SpecificAllergies
	case CategoryDocuments:
		return &t.SpecificDocuments
	}
	return nil
}

func (t *Toggles) flag(category string) *bool {
	switch category {
	case CategoryConditions:
		return &t.Conditions
	case CategoryMedications:
		return &t.Medications
	case CategoryAllergies:
		return &t.Allergies
	case CategoryLifestyle:
		return &t.Lifestyle
	case CategoryDocuments:
		return &t.Documents
	}
	return nil
}

// Contains reports whether id is in the category's specific list.
func (t *Toggles) Contains(category string, id uuid.UUID) bool {
	l := t.list(category)
	if l == nil {
		return false
	}
	for _, v := range *l {
		if v == id {
			return true
		}
	}
	return false
}

// Visible reports whether a record is rendered in the clinician preview.
func (t *Toggles) Visible(category string, id uuid.UUID) bool {
	if category == CategoryLifestyle {
		return t.Lifestyle
	}
	f := t.flag(category)
	return f != nil && *f && t.Contains(category, id)
}

// SetItem adds or removes id from the category's list and reports whether
// anything changed. Enabling an item also turns its category on; disabling
// the last item leaves the category flag alone.
func (t *Toggles) SetItem(category string, id uuid.UUID, enabled bool) bool {
	l := t.list(category)
	if l == nil {
		return false
	}
	present := t.Contains(category, id)
	switch {
	case enabled && !present:
		*l = append(*l, id)
		*t.flag(category) = true
		return true
	case enabled && !*t.flag(category):
		*t.flag(category) = true
		return true
	case !enabled && present:
		out := (*l)[:0:0]
		for _, v := range *l {
			if v != id {
				out = append(out, v)
			}
		}
		*l = out
		return true
	}
	return false
}

// Apply sets the category flags present in in. Identity fields stay true.
func (t *Toggles) Apply(in TogglesInput) {
	for category, v := range map[string]*bool{
		CategoryConditions:  in.Conditions,
		CategoryMedications: in.Medications,
		CategoryAllergies:   in.Allergies,
		CategoryLifestyle:   in.Lifestyle,
		CategoryDocuments:   in.Documents,
	} {
		if v != nil {
			*t.flag(category) = *v
		}
	}
	t.normalize()
}
