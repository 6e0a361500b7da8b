package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/auth"
	"github.com/medpass/medpass/internal/platform/hipaa"
)

// User maps to the app_user table. GovernmentID is only ever held in memory;
// the table stores it encrypted plus a keyed hash for lookups.
type User struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	FullName         string     `db:"full_name" json:"fullName"`
	GovernmentID     string     `db:"-" json:"-"`
	GovernmentIDEnc  string     `db:"government_id_enc" json:"-"`
	GovernmentIDHash string     `db:"government_id_hash" json:"-"`
	BirthDate        *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	BirthPlace       *string    `db:"birth_place" json:"birthPlace,omitempty"`
	FatherName       *string    `db:"father_name" json:"fatherName,omitempty"`
	MotherName       *string    `db:"mother_name" json:"motherName,omitempty"`
	Gender           *string    `db:"gender" json:"gender,omitempty"`
	Email            *string    `db:"email" json:"email,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	Address          *string    `db:"address" json:"address,omitempty"`
	BloodType        *string    `db:"blood_type" json:"bloodType,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

// Profile is the owner's view of their account.
type Profile struct {
	*User
	GovernmentID string `json:"governmentId"`
}

func (u *User) Profile() Profile {
	return Profile{User: u, GovernmentID: hipaa.Mask(u.GovernmentID)}
}

// UserRef is the short form returned after login.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
}

// ContactInput is the body of PATCH /users/me. Identity fields read from the
// ID card cannot be changed.
type ContactInput struct {
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Gender    *string `json:"gender"`
	BloodType *string `json:"bloodType"`
}

// VerifyResult is returned by POST /auth/verify-id.
type VerifyResult struct {
	IsNewUser     bool            `json:"isNewUser"`
	User          UserRef         `json:"user"`
	Token         *auth.TokenPair `json:"token"`
	ExtractedData *ExtractedData  `json:"extractedData,omitempty"`
}

// ExtractedData echoes what was read from a first-time user's card.
type ExtractedData struct {
	FullName     string `json:"fullName"`
	GovernmentID string `json:"governmentId"`
	BirthDate    string `json:"birthDate"`
	BirthPlace   string `json:"birthPlace,omitempty"`
	FatherName   string `json:"fatherName,omitempty"`
	MotherName   string `json:"motherName,omitempty"`
	Gender       string `json:"gender,omitempty"`
}
