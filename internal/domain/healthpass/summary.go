package healthpass

import (
	"fmt"
	"regexp"
	"strings"
)

// summaryFacts is everything a profile summary may be built from.
type summaryFacts struct {
	age       int
	gender    string
	specialty string
	visible   map[string][]string
	hidden    map[string]bool
}

func (f summaryFacts) anyHidden() bool {
	for _, h := range f.hidden {
		if h {
			return true
		}
	}
	return false
}

var summaryLabels = []struct{ category, label string }{
	{CategoryConditions, "Conditions"},
	{CategoryMedications, "Medications"},
	{CategoryAllergies, "Allergies"},
	{CategoryLifestyle, "Lifestyle"},
	{CategoryDocuments, "Documents"},
}

// buildSummary writes a profile from visible records only.
func buildSummary(f summaryFacts) string {
	var b strings.Builder
	switch {
	case f.age >= 0 && f.gender != "":
		fmt.Fprintf(&b, "%d-year-old %s patient", f.age, f.gender)
	case f.age >= 0:
		fmt.Fprintf(&b, "%d-year-old patient", f.age)
	case f.gender != "":
		fmt.Fprintf(&b, "%s patient", capitalize(f.gender))
	default:
		b.WriteString("Patient")
	}
	fmt.Fprintf(&b, " attending a %s appointment.", strings.ReplaceAll(f.specialty, "_", " "))

	shared := false
	for _, l := range summaryLabels {
		if items := f.visible[l.category]; len(items) > 0 {
			shared = true
			fmt.Fprintf(&b, " %s: %s.", l.label, strings.Join(items, "; "))
		}
	}
	switch {
	case f.anyHidden():
		b.WriteString(" Additional records exist that were not shared for this visit.")
	case !shared:
		b.WriteString(" No health records are on file.")
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Each pattern captures the word naming what is claimed absent.
var absenceClaims = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:no|denies|without|free\s+of|not\s+(?:on|taking|using)\s+any|(?:does|did)\s*(?:not|n['’]t)\s+(?:take|use|have)\s+any)\s+` +
		`(?:(?:known|current|significant|documented|reported|other|active|chronic|regular|prescription|prior|past|drug|food|medication|environmental|medical)\s+)*` +
		`(conditions?|diagnos[ie]s|illness(?:es)?|medications?|meds|drugs?|prescriptions?|allerg(?:y|ies)|lifestyle|documents?|history|records?)\b`),
	regexp.MustCompile(`\b(NK[DF]?A)\b`),
	regexp.MustCompile(`(?i)\b((?:past\s+)?medical\s+history|pmh|history)\s+(?:is\s+|was\s+)?(?:unremarkable|non-?contributory|negative)\b`),
	regexp.MustCompile(`(?i)\bunremarkable\s+((?:past\s+)?(?:medical\s+)?history)\b`),
}

var claimCategory = map[string]string{
	"condition": CategoryConditions, "conditions": CategoryConditions,
	"diagnosis": CategoryConditions, "diagnoses": CategoryConditions,
	"illness": CategoryConditions, "illnesses": CategoryConditions,
	"medication": CategoryMedications, "medications": CategoryMedications, "meds": CategoryMedications,
	"drug": CategoryMedications, "drugs": CategoryMedications,
	"prescription": CategoryMedications, "prescriptions": CategoryMedications,
	"allergy": CategoryAllergies, "allergies": CategoryAllergies,
	"nka": CategoryAllergies, "nkda": CategoryAllergies, "nkfa": CategoryAllergies,
	"lifestyle": CategoryLifestyle,
	"document": CategoryDocuments, "documents": CategoryDocuments,
}

// claimsAbsence reports whether text says a category is empty while that
// category holds records the pass hides.
func claimsAbsence(text string, hidden map[string]bool) bool {
	for _, re := range absenceClaims {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			word := strings.ToLower(m[1])
			if category, ok := claimCategory[word]; ok {
				if hidden[category] {
					return true
				}
				continue
			}
			// "no history", "history is unremarkable"
			for _, h := range hidden {
				if h {
					return true
				}
			}
		}
	}
	return false
}
