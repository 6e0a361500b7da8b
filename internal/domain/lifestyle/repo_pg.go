package lifestyle

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

var lifestyleCols = []string{
	"id", "user_id", "smoking_status", "alcohol_use", "exercise_frequency", "diet_type",
	"sleep_hours", "stress_level", "notes", "is_active", "created_at", "updated_at",
}

func (r *repoPG) GetByUser(ctx context.Context, userID uuid.UUID) (*Lifestyle, error) {
	query, args, err := db.Builder().Select(lifestyleCols...).From("lifestyle").
		Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var l Lifestyle
	if err := pgxscan.Get(ctx, r.conn(ctx), &l, query, args...); err != nil {
		return nil, db.MapError(err, "lifestyle")
	}
	return &l, nil
}

func (r *repoPG) FindOrCreate(ctx context.Context, userID uuid.UUID) (*Lifestyle, error) {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lifestyle (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`, uuid.New(), userID)
	if err != nil {
		return nil, db.MapError(err, "lifestyle")
	}
	return r.GetByUser(ctx, userID)
}

func (r *repoPG) Upsert(ctx context.Context, l *Lifestyle) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lifestyle (id, user_id, smoking_status, alcohol_use, exercise_frequency,
			diet_type, sleep_hours, stress_level, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (user_id) DO UPDATE SET
			smoking_status = EXCLUDED.smoking_status,
			alcohol_use = EXCLUDED.alcohol_use,
			exercise_frequency = EXCLUDED.exercise_frequency,
			diet_type = EXCLUDED.diet_type,
			sleep_hours = EXCLUDED.sleep_hours,
			stress_level = EXCLUDED.stress_level,
			notes = EXCLUDED.notes,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id, is_active, created_at, updated_at`,
		l.ID, l.UserID, l.SmokingStatus, l.AlcoholUse, l.ExerciseFrequency,
		l.DietType, l.SleepHours, l.StressLevel, l.Notes,
	).Scan(&l.ID, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	return db.MapError(err, "lifestyle")
}

func (r *repoPG) SoftDelete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lifestyle SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1`, userID)
	if err != nil {
		return db.MapError(err, "lifestyle")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lifestyle")
	}
	return nil
}
