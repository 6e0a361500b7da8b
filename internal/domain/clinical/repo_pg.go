package clinical

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/db"
)

// =========== Condition Repository ===========

type conditionRepoPG struct{ pool db.Querier }

func NewConditionRepoPG(pool db.Querier) ConditionRepository { return &conditionRepoPG{pool: pool} }

func (r *conditionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var condCols = []string{
	"id", "user_id", "name", "status", "severity", "diagnosed_date", "notes",
	"is_active", "created_at", "updated_at",
}

func (r *conditionRepoPG) Create(ctx context.Context, c *Condition) error {
	c.ID = uuid.New()
	c.IsActive = true
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_condition (id, user_id, name, status, severity, diagnosed_date, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Name, c.Status, c.Severity, c.DiagnosedDate, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.MapError(err, "condition")
}

func (r *conditionRepoPG) GetByID(ctx context.Context, userID, id uuid.UUID) (*Condition, error) {
	query, args, err := db.Builder().Select(condCols...).From("medical_condition").
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var c Condition
	if err := pgxscan.Get(ctx, r.conn(ctx), &c, query, args...); err != nil {
		return nil, db.MapError(err, "condition")
	}
	return &c, nil
}

func (r *conditionRepoPG) Update(ctx context.Context, c *Condition) error {
	query, args, err := db.Builder().Update("medical_condition").
		SetMap(map[string]interface{}{
			"name":           c.Name,
			"status":         c.Status,
			"severity":       c.Severity,
			"diagnosed_date": c.DiagnosedDate,
			"notes":          c.Notes,
			"updated_at":     sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": c.ID, "user_id": c.UserID}).
		Suffix("RETURNING updated_at").ToSql()
	if err != nil {
		return err
	}
	return db.MapError(r.conn(ctx).QueryRow(ctx, query, args...).Scan(&c.UpdatedAt), "condition")
}

func (r *conditionRepoPG) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_condition SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err, "condition")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("condition")
	}
	return nil
}

func (r *conditionRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Condition, error) {
	where := sq.Eq{"user_id": userID}
	if activeOnly {
		where["is_active"] = true
	}
	query, args, err := db.Builder().Select(condCols...).From("medical_condition").
		Where(where).OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}
	var items []*Condition
	if err := pgxscan.Select(ctx, r.conn(ctx), &items, query, args...); err != nil {
		return nil, db.MapError(err, "condition")
	}
	return items, nil
}

func (r *conditionRepoPG) ExistsActive(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM medical_condition
			WHERE user_id = $1 AND is_active AND lower(name) = $2 AND id <> $3
		)`, userID, normalizeKey(name), excludeID).Scan(&exists)
	return exists, db.MapError(err, "condition")
}

// =========== Allergy Repository ===========

type allergyRepoPG struct{ pool db.Querier }

func NewAllergyRepoPG(pool db.Querier) AllergyRepository { return &allergyRepoPG{pool: pool} }

func (r *allergyRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var allergyCols = []string{
	"id", "user_id", "allergen", "allergy_type", "severity", "reaction", "notes",
	"is_active", "created_at", "updated_at",
}

func (r *allergyRepoPG) Create(ctx context.Context, a *Allergy) error {
	a.ID = uuid.New()
	a.IsActive = true
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO allergy (id, user_id, allergen, allergy_type, severity, reaction, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Allergen, a.AllergyType, a.Severity, a.Reaction, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.MapError(err, "allergy")
}

func (r *allergyRepoPG) GetByID(ctx context.Context, userID, id uuid.UUID) (*Allergy, error) {
	query, args, err := db.Builder().Select(allergyCols...).From("allergy").
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var a Allergy
	if err := pgxscan.Get(ctx, r.conn(ctx), &a, query, args...); err != nil {
		return nil, db.MapError(err, "allergy")
	}
	return &a, nil
}

func (r *allergyRepoPG) Update(ctx context.Context, a *Allergy) error {
	query, args, err := db.Builder().Update("allergy").
		SetMap(map[string]interface{}{
			"allergen":     a.Allergen,
			"allergy_type": a.AllergyType,
			"severity":     a.Severity,
			"reaction":     a.Reaction,
			"notes":        a.Notes,
			"updated_at":   sq.Expr("NOW()"),
		}).
		Where(sq.Eq{"id": a.ID, "user_id": a.UserID}).
		Suffix("RETURNING updated_at").ToSql()
	if err != nil {
		return err
	}
	return db.MapError(r.conn(ctx).QueryRow(ctx, query, args...).Scan(&a.UpdatedAt), "allergy")
}

func (r *allergyRepoPG) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE allergy SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err, "allergy")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("allergy")
	}
	return nil
}

func (r *allergyRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Allergy, error) {
	where := sq.Eq{"user_id": userID}
	if activeOnly {
		where["is_active"] = true
	}
	query, args, err := db.Builder().Select(allergyCols...).From("allergy").
		Where(where).OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}
	var items []*Allergy
	if err := pgxscan.Select(ctx, r.conn(ctx), &items, query, args...); err != nil {
		return nil, db.MapError(err, "allergy")
	}
	return items, nil
}

func (r *allergyRepoPG) ExistsActive(ctx context.Context, userID uuid.UUID, allergen string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM allergy
			WHERE user_id = $1 AND is_active AND lower(allergen) = $2 AND id <> $3
		)`, userID, normalizeKey(allergen), excludeID).Scan(&exists)
	return exists, db.MapError(err, "allergy")
}
