package healthpass

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/medpass/medpass/internal/platform/ai"
	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/events"
	"github.com/medpass/medpass/internal/platform/metrics"
	"github.com/medpass/medpass/internal/platform/qrcode"
	"github.com/medpass/medpass/pkg/civil"
)

// Advisor judges record relevance and writes profile summaries.
// *ai.Client implements it.
type Advisor interface {
	Recommend(ctx context.Context, specialty string, records ai.RecordSet) (*ai.Recommendation, error)
	Summarize(ctx context.Context, in ai.SummaryInput) (string, error)
}

const (
	maxNotesLen    = 1000
	accessCodeSize = 24
)

// Default judgments used when the advisor leaves a record out.
var (
	defaultIncluded = Judgment{IsRelevant: true, Rationale: "Shared by default; automatic relevance review was unavailable for this record."}
	defaultExcluded = Judgment{IsRelevant: false, Rationale: "Not shared by default; automatic relevance review was unavailable for this record."}
)

type Service struct {
	repo    Repository
	tx      TxRunner
	records Records
	advisor Advisor
	emitter *events.Emitter
	logger  zerolog.Logger
	metrics *metrics.Metrics
	baseURL string
	now     func() time.Time
	newCode func() (string, error)
}

func NewService(repo Repository, tx TxRunner, records Records, advisor Advisor, emitter *events.Emitter, baseURL string, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		records: records,
		advisor: advisor,
		emitter: emitter,
		logger:  logger.With().Str("component", "healthpass").Logger(),
		metrics: m,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		newCode: newAccessCode,
	}
}

func newAccessCode() (string, error) {
	b := make([]byte, accessCodeSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AccessURL is the link encoded in a pass's QR code.
func (s *Service) AccessURL(code string) string {
	return s.baseURL + "/health-pass/" + code
}

// fetch reads every category concurrently. Any failure fails the whole read.
func (s *Service) fetch(ctx context.Context, userID uuid.UUID) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.user, err = s.records.Users.Me(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.conditions, err = s.records.Clinical.ListConditions(gctx, userID, true)
		return err
	})
	g.Go(func() (err error) {
		snap.medications, err = s.records.Medications.List(gctx, userID, true)
		return err
	})
	g.Go(func() (err error) {
		snap.allergies, err = s.records.Clinical.ListAllergies(gctx, userID, true)
		return err
	})
	g.Go(func() (err error) {
		snap.lifestyle, err = s.records.Lifestyle.Active(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.documents, err = s.records.Documents.ListConfirmed(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load health records: %w", err)
	}
	return snap, nil
}

func (s *Service) fallback(operation string, err error) {
	if !errors.Is(err, ai.ErrUnavailable) {
		s.logger.Warn().Err(err).Str("operation", operation).Msg("ai call failed, using defaults")
	}
	if s.metrics != nil {
		s.metrics.AIFallbacks.WithLabelValues(operation).Inc()
	}
}

// recommend returns a judgment for every record in snap. It never fails.
func (s *Service) recommend(ctx context.Context, specialty string, snap *snapshot) Recommendations {
	toItems := func(category string) []ai.Item {
		items := []ai.Item{}
		for _, e := range snap.entries(category) {
			items = append(items, ai.Item{ID: e.id.String(), Summary: e.summary})
		}
		return items
	}
	set := ai.RecordSet{
		Conditions:  toItems(CategoryConditions),
		Medications: toItems(CategoryMedications),
		Allergies:   toItems(CategoryAllergies),
		Documents:   toItems(CategoryDocuments),
	}
	if l := toItems(CategoryLifestyle); len(l) > 0 {
		set.Lifestyle = &l[0]
	}

	out := Recommendations{Items: make(map[string]Judgment)}
	total := len(set.Conditions) + len(set.Medications) + len(set.Allergies) + len(set.Documents)
	if set.Lifestyle != nil {
		total++
	}

	var judged map[string]ai.Judgment
	if total > 0 {
		rec, err := s.advisor.Recommend(ctx, specialty, set)
		if err != nil {
			s.fallback("recommend", err)
		} else {
			judged = rec.Items
			out.OverallRationale = rec.OverallRationale
		}
	}

	missing := 0
	for _, category := range categories {
		def := defaultExcluded
		if category == CategoryConditions || category == CategoryMedications || category == CategoryAllergies {
			def = defaultIncluded
		}
		for _, e := range snap.entries(category) {
			if j, ok := judged[e.id.String()]; ok {
				out.Items[e.id.String()] = Judgment{IsRelevant: j.IsRelevant, Rationale: j.Rationale}
				continue
			}
			missing++
			out.Items[e.id.String()] = def
		}
	}
	if judged != nil && missing > 0 {
		s.logger.Debug().Int("missing", missing).Msg("advisor omitted records, defaults applied")
	}
	if out.OverallRationale == "" {
		out.OverallRationale = "Records were selected using default sharing rules."
	}
	return out
}

// manifest derives the initial toggles from the judgments.
func manifest(snap *snapshot, rec Recommendations) Toggles {
	var t Toggles
	t.normalize()
	for _, category := range categories {
		for _, e := range snap.entries(category) {
			if !rec.Items[e.id.String()].IsRelevant {
				continue
			}
			if category == CategoryLifestyle {
				t.Lifestyle = true
				continue
			}
			t.SetItem(category, e.id, true)
		}
	}
	return t
}

// facts splits snap into what toggles shows and what it hides.
func facts(snap *snapshot, t Toggles, specialty string, now time.Time) summaryFacts {
	f := summaryFacts{
		age:       civil.Age(snap.user.BirthDate, now),
		specialty: specialty,
		visible:   make(map[string][]string),
		hidden:    make(map[string]bool),
	}
	if snap.user.Gender != nil {
		f.gender = *snap.user.Gender
	}
	for _, category := range categories {
		for _, e := range snap.entries(category) {
			if t.Visible(category, e.id) {
				f.visible[category] = append(f.visible[category], e.summary)
			} else {
				f.hidden[category] = true
			}
		}
	}
	return f
}

// summarize asks the advisor for a profile and falls back to the built-in
// one when the call fails or the text claims a hidden category is empty.
func (s *Service) summarize(ctx context.Context, f summaryFacts) string {
	text, err := s.advisor.Summarize(ctx, ai.SummaryInput{
		Age:                max(f.age, 0),
		Gender:             f.gender,
		Specialty:          f.specialty,
		Visible:            f.visible,
		HasUnsharedRecords: f.anyHidden(),
	})
	if err != nil {
		s.fallback("summarize", err)
		return buildSummary(f)
	}
	if claimsAbsence(text, f.hidden) {
		s.logger.Warn().Msg("generated summary denied hidden records, using built-in summary")
		if s.metrics != nil {
			s.metrics.AIFallbacks.WithLabelValues("summary_guard").Inc()
		}
		return buildSummary(f)
	}
	return text
}

func validateCreate(in CreateInput) (specialty string, date *time.Time, notes *string, err error) {
	specialty = strings.ToLower(strings.TrimSpace(in.AppointmentSpecialty))
	if specialty == "" {
		return "", nil, nil, apperr.Required("appointmentSpecialty")
	}
	if !validSpecialties[specialty] {
		return "", nil, nil, apperr.Validation("appointmentSpecialty", "invalid value "+specialty)
	}
	if date, err = civil.ParseDate("appointmentDate", in.AppointmentDate); err != nil {
		return "", nil, nil, err
	}
	if in.AppointmentNotes != nil {
		if n := strings.TrimSpace(*in.AppointmentNotes); n != "" {
			if len(n) > maxNotesLen {
				return "", nil, nil, apperr.Validation("appointmentNotes", "is too long")
			}
			notes = &n
		}
	}
	return specialty, date, notes, nil
}

// Create composes a new pass from the owner's current records.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*OwnerView, error) {
	specialty, date, notes, err := validateCreate(in)
	if err != nil {
		return nil, err
	}

	snap, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := s.recommend(ctx, specialty, snap)
	toggles := manifest(snap, rec)

	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.DataURL(s.AccessURL(code))
	if err != nil {
		return nil, err
	}

	p := &HealthPass{
		UserID:           userID,
		Specialty:        specialty,
		AppointmentDate:  date,
		AppointmentNotes: notes,
		AccessCode:       code,
		QRCode:           qr,
		Status:           StatusGenerated,
		ExpiresAt:        now.Add(AccessTTL),
		Toggles:          toggles,
		Recommendations:  rec,
		ProfileSummary:   s.summarize(ctx, facts(snap, toggles, specialty, now)),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PassesCreated.WithLabelValues(specialty).Inc()
	}
	s.emitter.Emit(ctx, events.New(events.TypePassCreated, p.ID, userID, map[string]string{
		"specialty": specialty,
		"expiresAt": p.ExpiresAt.UTC().Format(time.RFC3339),
	}))
	s.logger.Info().Str("pass_id", p.ID.String()).Str("specialty", specialty).Msg("health pass created")

	return buildOwnerView(p, snap, now), nil
}

// Get returns the owner view computed from the owner's current records.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*OwnerView, error) {
	p, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	snap, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildOwnerView(p, snap, s.now()), nil
}

// List returns the owner's passes, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*HealthPass, int, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for _, p := range items {
		p.Status = p.EffectiveStatus(now)
	}
	return items, total, nil
}

func itemCategory(itemType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(itemType)) {
	case "condition", "conditions":
		return CategoryConditions, nil
	case "medication", "medications":
		return CategoryMedications, nil
	case "allergy", "allergies":
		return CategoryAllergies, nil
	case "document", "documents":
		return CategoryDocuments, nil
	case "lifestyle":
		return "", apperr.Validation("itemType", "lifestyle is shared as a whole; use the toggles endpoint")
	case "":
		return "", apperr.Required("itemType")
	}
	return "", apperr.Validation("itemType", "invalid value "+itemType)
}

// ToggleItem adds or removes one record from a pass. Repeating a call is a
// no-op. Only the owner's current active records can be enabled.
func (s *Service) ToggleItem(ctx context.Context, userID, id uuid.UUID, in ToggleItemInput) (*OwnerView, error) {
	category, err := itemCategory(in.ItemType)
	if err != nil {
		return nil, err
	}
	if in.ItemID == uuid.Nil {
		return nil, apperr.Required("itemId")
	}
	if in.IsEnabled == nil {
		return nil, apperr.Required("isEnabled")
	}

	snap, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if *in.IsEnabled && !hasEntry(snap, category, in.ItemID) {
		return nil, apperr.NotFound("record")
	}

	var p *HealthPass
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetForUpdate(ctx, userID, id); err != nil {
			return err
		}
		if !p.Toggles.SetItem(category, in.ItemID, *in.IsEnabled) {
			return nil
		}
		return s.repo.UpdateToggles(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return buildOwnerView(p, snap, s.now()), nil
}

func hasEntry(snap *snapshot, category string, id uuid.UUID) bool {
	for _, e := range snap.entries(category) {
		if e.id == id {
			return true
		}
	}
	return false
}

// UpdateToggles sets category flags. Name, gender and date of birth cannot
// be turned off.
func (s *Service) UpdateToggles(ctx context.Context, userID, id uuid.UUID, in TogglesInput) (*OwnerView, error) {
	var p *HealthPass
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetForUpdate(ctx, userID, id); err != nil {
			return err
		}
		p.Toggles.Apply(in)
		return s.repo.UpdateToggles(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	snap, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildOwnerView(p, snap, s.now()), nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, userID, id)
}

func (s *Service) countAccess(result string) {
	if s.metrics != nil {
		s.metrics.PassAccesses.WithLabelValues(result).Inc()
	}
}

// Access records a scan of code and returns the clinician preview. Unknown,
// deleted and expired codes are indistinguishable.
func (s *Service) Access(ctx context.Context, code string) (*Preview, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		s.countAccess("not_found")
		return nil, apperr.NotFound("health pass")
	}

	now := s.now()
	p, err := s.repo.AccessByCode(ctx, code, now)
	if errors.Is(err, apperr.ErrNotFound) {
		s.countAccess("not_found")
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if p.Status == StatusExpired {
		s.countAccess("expired")
		s.emitter.Emit(ctx, events.New(events.TypePassExpired, p.ID, p.UserID, nil))
		return nil, apperr.NotFound("health pass")
	}

	snap, err := s.fetch(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	s.countAccess("ok")
	s.emitter.Emit(ctx, events.New(events.TypePassAccessed, p.ID, p.UserID, map[string]string{
		"accessCount": fmt.Sprint(p.AccessCount),
	}))
	return s.preview(ctx, p, snap, now), nil
}

func (s *Service) preview(ctx context.Context, p *HealthPass, snap *snapshot, now time.Time) *Preview {
	pv := &Preview{
		Patient: buildPatient(snap, now),
		Appointment: Appointment{
			Specialty: p.Specialty,
			Date:      p.AppointmentDate,
			Notes:     p.AppointmentNotes,
		},
		Conditions:       []PreviewItem{},
		Medications:      []PreviewItem{},
		Allergies:        []PreviewItem{},
		Documents:        []PreviewItem{},
		OverallRationale: p.Recommendations.OverallRationale,
		ProfileSummary:   p.ProfileSummary,
		ExpiresAt:        p.ExpiresAt,
	}
	for _, category := range categories {
		for _, e := range snap.entries(category) {
			if !p.Toggles.Visible(category, e.id) {
				continue
			}
			item := PreviewItem{Record: e.record, Rationale: p.judgment(e.id).Rationale}
			switch category {
			case CategoryConditions:
				pv.Conditions = append(pv.Conditions, item)
			case CategoryMedications:
				pv.Medications = append(pv.Medications, item)
			case CategoryAllergies:
				pv.Allergies = append(pv.Allergies, item)
			case CategoryLifestyle:
				pv.Lifestyle = &item
			case CategoryDocuments:
				if u, err := s.records.Documents.URL(ctx, p.UserID, e.id); err == nil {
					item.URL = u.URL
				} else {
					s.logger.Warn().Err(err).Str("pass_id", p.ID.String()).Msg("sign shared document url")
				}
				pv.Documents = append(pv.Documents, item)
			}
		}
	}
	return pv
}
