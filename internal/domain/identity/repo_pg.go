package identity

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/db"
)

type userRepoPG struct {
	pool db.Querier
	phi  FieldProtector
}

func NewUserRepoPG(pool db.Querier, phi FieldProtector) UserRepository {
	return &userRepoPG{pool: pool, phi: phi}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var userCols = []string{
	"id", "full_name", "government_id_enc", "government_id_hash", "birth_date",
	"birth_place", "father_name", "mother_name", "gender",
	"email", "phone", "address", "blood_type", "created_at", "updated_at",
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	enc, err := r.phi.Encrypt(u.GovernmentID)
	if err != nil {
		return fmt.Errorf("encrypting government id: %w", err)
	}
	u.ID = uuid.New()
	u.GovernmentIDEnc = enc
	u.GovernmentIDHash = r.phi.BlindIndex(u.GovernmentID)

	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO app_user (id, full_name, government_id_enc, government_id_hash, birth_date,
			birth_place, father_name, mother_name, gender)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		u.ID, u.FullName, u.GovernmentIDEnc, u.GovernmentIDHash, u.BirthDate,
		u.BirthPlace, u.FatherName, u.MotherName, u.Gender,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return db.MapError(err, "user")
}

func (r *userRepoPG) get(ctx context.Context, where sq.Eq) (*User, error) {
	query, args, err := db.Builder().Select(userCols...).From("app_user").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var u User
	if err := pgxscan.Get(ctx, r.conn(ctx), &u, query, args...); err != nil {
		return nil, db.MapError(err, "user")
	}
	if u.GovernmentID, err = r.phi.Decrypt(u.GovernmentIDEnc); err != nil {
		return nil, fmt.Errorf("decrypting government id: %w", err)
	}
	return &u, nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.get(ctx, sq.Eq{"id": id})
}

func (r *userRepoPG) GetByGovernmentID(ctx context.Context, governmentID string) (*User, error) {
	return r.get(ctx, sq.Eq{"government_id_hash": r.phi.BlindIndex(governmentID)})
}

func (r *userRepoPG) UpdateContact(ctx context.Context, u *User) error {
	query, args, err := db.Builder().Update("app_user").
		SetMap(map[string]interface{}{
			"email":      u.Email,
			"phone":      u.Phone,
			"address":    u.Address,
			"gender":     u.Gender,
			"blood_type": u.BloodType,
			"updated_at": sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": u.ID}).
		Suffix("RETURNING updated_at").ToSql()
	if err != nil {
		return err
	}
	return db.MapError(r.conn(ctx).QueryRow(ctx, query, args...).Scan(&u.UpdatedAt), "user")
}
