package pg

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestContentRepo_InsertDraft_New(t *testing.T) {
	mock := newMock(t)
	repo := NewContentRepo(mock)

	c := &domain.Content{
		ID:         uuid.New(),
		SourceURL:  "https://example.com/ep1",
		SourceName: "Example Cast",
		Title:      "Episode 1",
		RawText:    "body",
		ReleasedAt: time.Now(),
		BatchID:    "batch-1",
	}

	mock.ExpectExec(`INSERT INTO content`).
		WithArgs(c.ID, c.SourceURL, c.SourceName, c.Title, c.RawText, c.AudioURL, c.ReleasedAt, c.BatchID, c.Authors).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := repo.InsertDraft(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepo_InsertDraft_DuplicateURLSkipped(t *testing.T) {
	mock := newMock(t)
	repo := NewContentRepo(mock)

	c := &domain.Content{ID: uuid.New(), SourceURL: "https://example.com/ep1", ReleasedAt: time.Now()}

	// ON CONFLICT DO NOTHING affects zero rows; not an error.
	mock.ExpectExec(`INSERT INTO content`).
		WithArgs(c.ID, c.SourceURL, c.SourceName, c.Title, c.RawText, c.AudioURL, c.ReleasedAt, c.BatchID, c.Authors).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.InsertDraft(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestContentRepo_Get_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewContentRepo(mock)

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM content`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), id)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestContentRepo_SetAudio_RequiresBoth(t *testing.T) {
	mock := newMock(t)
	repo := NewContentRepo(mock)

	err := repo.SetAudio(context.Background(), uuid.New(), "", 1000)
	require.Error(t, err)

	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)

	err = repo.SetAudio(context.Background(), uuid.New(), "https://cdn/audio.mp3", 0)
	assert.ErrorAs(t, err, &ve)
}

func TestContentRepo_MarkProcessed_Idempotent(t *testing.T) {
	mock := newMock(t)
	repo := NewContentRepo(mock)

	id := uuid.New()

	mock.ExpectExec(`UPDATE content SET is_processed = true`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// Second call matches zero rows; still success.
	mock.ExpectExec(`UPDATE content SET is_processed = true`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.MarkProcessed(context.Background(), id))
	require.NoError(t, repo.MarkProcessed(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
