package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medpass/medpass/internal/platform/ai"
	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/auth"
	"github.com/medpass/medpass/internal/platform/hipaa"
	"github.com/medpass/medpass/pkg/civil"
)

// IDCardReader reads identity fields from a photo of an ID card.
type IDCardReader interface {
	ExtractIDCard(ctx context.Context, img ai.Attachment) (*ai.IDCard, error)
}

var (
	validGenders    = map[string]bool{"male": true, "female": true, "other": true}
	validBloodTypes = map[string]bool{
		"A+": true, "A-": true, "B+": true, "B-": true,
		"AB+": true, "AB-": true, "O+": true, "O-": true,
	}
)

type Service struct {
	users  UserRepository
	reader IDCardReader
	tokens *auth.TokenIssuer
	logger zerolog.Logger
}

func NewService(users UserRepository, reader IDCardReader, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		reader: reader,
		tokens: tokens,
		logger: logger.With().Str("component", "identity").Logger(),
	}
}

// VerifyID signs a user in from a photo of their ID card, registering them
// on first sight.
func (s *Service) VerifyID(ctx context.Context, img ai.Attachment) (*VerifyResult, error) {
	if len(img.Data) == 0 {
		return nil, apperr.Required("image")
	}
	if !ai.SupportedAttachment(img.MediaType) || img.MediaType == "application/pdf" {
		return nil, apperr.Validation("image", "unsupported image type "+img.MediaType)
	}

	card, err := s.reader.ExtractIDCard(ctx, img)
	if err != nil {
		return nil, apperr.DocumentProcessing("could not read identity card", err)
	}
	if err := requireCardFields(card); err != nil {
		return nil, err
	}
	birthDate, err := civil.ParseDate("birthDate", &card.BirthDate)
	if err != nil {
		return nil, apperr.DocumentProcessing("identity card birth date is unreadable", nil)
	}
	govID := hipaa.NormalizeIdentifier(card.GovernmentID)

	user, err := s.users.GetByGovernmentID(ctx, govID)
	isNew := false
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		user, isNew, err = s.register(ctx, card, govID, birthDate)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Bool("new_user", isNew).Msg("identity verified")

	res := &VerifyResult{
		IsNewUser: isNew,
		User:      UserRef{ID: user.ID, FullName: user.FullName},
		Token:     pair,
	}
	if isNew {
		res.ExtractedData = &ExtractedData{
			FullName:     card.FullName,
			GovernmentID: hipaa.Mask(govID),
			BirthDate:    civil.Format(birthDate),
			BirthPlace:   card.BirthPlace,
			FatherName:   card.FatherName,
			MotherName:   card.MotherName,
			Gender:       card.Gender,
		}
	}
	return res, nil
}

func requireCardFields(card *ai.IDCard) error {
	var missing []string
	if card.FullName == "" {
		missing = append(missing, "fullName")
	}
	if card.GovernmentID == "" {
		missing = append(missing, "governmentId")
	}
	if card.BirthDate == "" {
		missing = append(missing, "birthDate")
	}
	if len(missing) > 0 {
		return apperr.DocumentProcessing("identity card is missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// register creates the user. If a concurrent request registered the same
// card first, that user is returned instead.
func (s *Service) register(ctx context.Context, card *ai.IDCard, govID string, birthDate *time.Time) (*User, bool, error) {
	u := &User{
		FullName:     card.FullName,
		GovernmentID: govID,
		BirthDate:    birthDate,
		BirthPlace:   optional(card.BirthPlace),
		FatherName:   optional(card.FatherName),
		MotherName:   optional(card.MotherName),
	}
	if g := strings.ToLower(card.Gender); validGenders[g] {
		u.Gender = &g
	}

	err := s.users.Create(ctx, u)
	if errors.Is(err, apperr.ErrConflict) {
		existing, getErr := s.users.GetByGovernmentID(ctx, govID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Refresh rotates a refresh token into a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	pair, userID, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = s.tokens.Revoke(ctx, userID, pair.RefreshToken)
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	return pair, nil
}

// Logout revokes a refresh token belonging to userID.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	return s.tokens.Revoke(ctx, userID, refreshToken)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, in ContactInput) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		if u.Email = optional(*in.Email); u.Email != nil {
			addr, err := mail.ParseAddress(*u.Email)
			if err != nil || addr.Address != *u.Email {
				return nil, apperr.Validation("email", "is not a valid address")
			}
		}
	}
	if in.Phone != nil {
		u.Phone = optional(*in.Phone)
	}
	if in.Address != nil {
		u.Address = optional(*in.Address)
	}
	if in.Gender != nil {
		if u.Gender = optional(strings.ToLower(*in.Gender)); u.Gender != nil && !validGenders[*u.Gender] {
			return nil, apperr.Validation("gender", "invalid value "+*u.Gender)
		}
	}
	if in.BloodType != nil {
		if u.BloodType = optional(strings.ToUpper(*in.BloodType)); u.BloodType != nil && !validBloodTypes[*u.BloodType] {
			return nil, apperr.Validation("bloodType", "invalid value "+*u.BloodType)
		}
	}

	if err := s.users.UpdateContact(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
