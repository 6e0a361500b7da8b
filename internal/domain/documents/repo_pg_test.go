package documents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpass/medpass/internal/platform/apperr"
)

func TestRepoPG_CreateDuplicateHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	user := uuid.New()
	mock.ExpectQuery(`INSERT INTO document`).
		WithArgs(pgxmock.AnyArg(), user,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"abc",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "document_user_hash_active_idx"})

	err = NewRepoPG(mock).Create(context.Background(), &Document{UserID: user, ContentHash: "abc"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoPG_ListByUserCountsAndPages(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	user := uuid.New()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM document WHERE is_active = \$1 AND user_id = \$2`).
		WithArgs(true, user.String()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT .* FROM document WHERE is_active = \$1 AND user_id = \$2 ORDER BY created_at DESC, id LIMIT 5 OFFSET 10`).
		WithArgs(true, user.String()).
		WillReturnRows(pgxmock.NewRows(docCols))

	items, total, err := NewRepoPG(mock).ListByUser(context.Background(), user, true, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoPG_ConfirmInactive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	doc := &Document{ID: uuid.New(), UserID: uuid.New()}
	mock.ExpectQuery(`UPDATE document .* WHERE id = \$1 AND user_id = \$2 AND is_active`).
		WithArgs(doc.ID, doc.UserID, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"is_confirmed", "updated_at"}))

	err = NewRepoPG(mock).Confirm(context.Background(), doc)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
