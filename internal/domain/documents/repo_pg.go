package documents

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

var docCols = []string{
	"id", "user_id", "storage_key", "file_name", "content_type", "size_bytes", "content_hash",
	"name", "document_date", "notes", "document_type",
	"ai_name", "ai_date", "ai_notes", "ai_document_type", "ai_confidence",
	"is_confirmed", "is_active", "created_at", "updated_at",
}

func (r *repoPG) Create(ctx context.Context, d *Document) error {
	d.ID = uuid.New()
	d.IsActive = true
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO document (id, user_id, storage_key, file_name, content_type, size_bytes,
			content_hash, ai_name, ai_date, ai_notes, ai_document_type, ai_confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.StorageKey, d.FileName, d.ContentType, d.SizeBytes,
		d.ContentHash, d.AISuggestion.Name, d.AISuggestion.Date, d.AISuggestion.Notes,
		d.AISuggestion.DocumentType, d.AISuggestion.Confidence,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.MapError(err, "document")
}

func (r *repoPG) GetByID(ctx context.Context, userID, id uuid.UUID) (*Document, error) {
	query, args, err := db.Builder().Select(docCols...).From("document").
		Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}
	var d Document
	if err := pgxscan.Get(ctx, r.conn(ctx), &d, query, args...); err != nil {
		return nil, db.MapError(err, "document")
	}
	return &d, nil
}

func (r *repoPG) Confirm(ctx context.Context, d *Document) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE document
		SET name = $3, document_date = $4, notes = $5, document_type = $6,
			is_confirmed = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active
		RETURNING is_confirmed, updated_at`,
		d.ID, d.UserID, d.Name, d.DocumentDate, d.Notes, d.DocumentType,
	).Scan(&d.IsConfirmed, &d.UpdatedAt)
	return db.MapError(err, "document")
}

func (r *repoPG) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE document SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return db.MapError(err, "document")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("document")
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool, limit, offset int) ([]*Document, int, error) {
	where := sq.Eq{"user_id": userID}
	if activeOnly {
		where["is_active"] = true
	}

	countQuery, countArgs, err := db.Builder().Select("COUNT(*)").From("document").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err, "document")
	}

	query, args, err := db.Builder().Select(docCols...).From("document").Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var items []*Document
	if err := pgxscan.Select(ctx, r.conn(ctx), &items, query, args...); err != nil {
		return nil, 0, db.MapError(err, "document")
	}
	return items, total, nil
}

func (r *repoPG) ListConfirmed(ctx context.Context, userID uuid.UUID) ([]*Document, error) {
	query, args, err := db.Builder().Select(docCols...).From("document").
		Where(sq.Eq{"user_id": userID, "is_active": true, "is_confirmed": true}).
		OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}
	var items []*Document
	if err := pgxscan.Select(ctx, r.conn(ctx), &items, query, args...); err != nil {
		return nil, db.MapError(err, "document")
	}
	return items, nil
}

func (r *repoPG) ExistsActiveHash(ctx context.Context, userID uuid.UUID, contentHash string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM document WHERE user_id = $1 AND content_hash = $2 AND is_active
		)`, userID, contentHash).Scan(&exists)
	return exists, db.MapError(err, "document")
}
