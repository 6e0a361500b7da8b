package healthpass

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/db"
)

type repoPG struct{ pool db.Querier }

func NewRepoPG(pool db.Querier) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var passColumns = []string{
	"id", "user_id", "specialty", "appointment_date", "appointment_notes",
	"access_code", "qr_code", "status", "expires_at", "access_count", "last_accessed_at",
	"toggles", "ai_recommendations", "profile_summary", "is_active", "created_at", "updated_at",
}

var passCols = strings.Join(passColumns, ", ")

func (r *repoPG) scanPass(row pgx.Row) (*HealthPass, error) {
	var p HealthPass
	err := row.Scan(&p.ID, &p.UserID, &p.Specialty, &p.AppointmentDate, &p.AppointmentNotes,
		&p.AccessCode, &p.QRCode, &p.Status, &p.ExpiresAt, &p.AccessCount, &p.LastAccessedAt,
		&p.Toggles, &p.Recommendations, &p.ProfileSummary, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Toggles.normalize()
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *HealthPass) error {
	p.ID = uuid.New()
	p.IsActive = true
	p.Toggles.normalize()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_pass (id, user_id, specialty, appointment_date, appointment_notes,
			access_code, qr_code, status, expires_at, toggles, ai_recommendations, profile_summary)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Specialty, p.AppointmentDate, p.AppointmentNotes,
		p.AccessCode, p.QRCode, p.Status, p.ExpiresAt, p.Toggles, p.Recommendations, p.ProfileSummary,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "health pass")
}

func (r *repoPG) GetByID(ctx context.Context, userID, id uuid.UUID) (*HealthPass, error) {
	p, err := r.scanPass(r.conn(ctx).QueryRow(ctx,
		`SELECT `+passCols+` FROM health_pass WHERE id = $1 AND user_id = $2 AND is_active`, id, userID))
	if err != nil {
		return nil, db.MapError(err, "health pass")
	}
	return p, nil
}

func (r *repoPG) GetForUpdate(ctx context.Context, userID, id uuid.UUID) (*HealthPass, error) {
	p, err := r.scanPass(r.conn(ctx).QueryRow(ctx,
		`SELECT `+passCols+` FROM health_pass WHERE id = $1 AND user_id = $2 AND is_active FOR UPDATE`, id, userID))
	if err != nil {
		return nil, db.MapError(err, "health pass")
	}
	return p, nil
}

func (r *repoPG) UpdateToggles(ctx context.Context, p *HealthPass) error {
	p.Toggles.normalize()
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE health_pass SET toggles = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active
		RETURNING updated_at`,
		p.ID, p.UserID, p.Toggles,
	).Scan(&p.UpdatedAt)
	return db.MapError(err, "health pass")
}

func (r *repoPG) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE health_pass SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err, "health pass")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("health pass")
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*HealthPass, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM health_pass WHERE user_id = $1 AND is_active`, userID).Scan(&total); err != nil {
		return nil, 0, db.MapError(err, "health pass")
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+passCols+` FROM health_pass
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err, "health pass")
	}
	defer rows.Close()
	var items []*HealthPass
	for rows.Next() {
		p, err := r.scanPass(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err, "health pass")
	}
	return items, total, nil
}

// AccessByCode uses the row lock taken by UPDATE to serialize concurrent
// scans of the same code. The expired guard in WHERE makes expiry terminal.
func (r *repoPG) AccessByCode(ctx context.Context, code string, now time.Time) (*HealthPass, error) {
	p, err := r.scanPass(r.conn(ctx).QueryRow(ctx, `
		UPDATE health_pass SET
			status = CASE WHEN expires_at < $2 THEN 'expired' ELSE 'shared' END,
			access_count = CASE WHEN expires_at < $2 THEN access_count ELSE access_count + 1 END,
			last_accessed_at = CASE WHEN expires_at < $2 THEN last_accessed_at ELSE $2 END,
			updated_at = $2
		WHERE access_code = $1 AND is_active AND status <> 'expired'
		RETURNING `+passCols, code, now))
	if err != nil {
		return nil, db.MapError(err, "health pass")
	}
	return p, nil
}
