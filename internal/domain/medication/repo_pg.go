package medication

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/db"
)

type repoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var medCols = []string{
	"id", "user_id", "name", "dosage", "frequency", "start_date", "end_date",
	"prescribed_by", "reason", "notes", "is_active", "created_at", "updated_at",
}

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	m.IsActive = true
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication (id, user_id, name, dosage, frequency, start_date, end_date,
			prescribed_by, reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, m.StartDate, m.EndDate,
		m.PrescribedBy, m.Reason, m.Notes,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return db.MapError(err, "medication")
}

func (r *repoPG) GetByID(ctx context.Context, userID, id uuid.UUID) (*Medication, error) {
	query, args, err := db.Builder().Select(medCols...).From("medication").
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var m Medication
	if err := pgxscan.Get(ctx, r.conn(ctx), &m, query, args...); err != nil {
		return nil, db.MapError(err, "medication")
	}
	return &m, nil
}

func (r *repoPG) Update(ctx context.Context, m *Medication) error {
	query, args, err := db.Builder().Update("medication").
		SetMap(map[string]interface{}{
			"name":          m.Name,
			"dosage":        m.Dosage,
			"frequency":     m.Frequency,
			"start_date":    m.StartDate,
			"end_date":      m.EndDate,
			"prescribed_by": m.PrescribedBy,
			"reason":        m.Reason,
			"notes":         m.Notes,
			"updated_at":    sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": m.ID, "user_id": m.UserID}).
		Suffix("RETURNING updated_at").ToSql()
	if err != nil {
		return err
	}
	return db.MapError(r.conn(ctx).QueryRow(ctx, query, args...).Scan(&m.UpdatedAt), "medication")
}

func (r *repoPG) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err, "medication")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medication")
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	where := sq.Eq{"user_id": userID}
	if activeOnly {
		where["is_active"] = true
	}
	query, args, err := db.Builder().Select(medCols...).From("medication").
		Where(where).OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}
	var items []*Medication
	if err := pgxscan.Select(ctx, r.conn(ctx), &items, query, args...); err != nil {
		return nil, db.MapError(err, "medication")
	}
	return items, nil
}

func (r *repoPG) ExistsActive(ctx context.Context, userID uuid.UUID, name, dosage string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM medication
			WHERE user_id = $1 AND is_active
				AND lower(name) = $2 AND lower(dosage) = $3 AND id <> $4
		)`, userID, normalizeKey(name), normalizeKey(dosage), excludeID).Scan(&exists)
	return exists, db.MapError(err, "medication")
}
