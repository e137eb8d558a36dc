package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/tmatsuo/go-shorty/internal/entity"
)

var (
	errUnknown      = errors.New("unknown error")
	errAffectedRows = errors.New("affected rows error")
)

var columns = []string{"id", "original_url", "short_code", "clicks", "created_at"}

func setupLinkRepository(t testing.TB) (*LinkRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewLinkRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestLinkRepository_Save(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "http://example.com").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		link, err := repo.Save(context.TODO(), "code1", "http://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrShortCodeExists)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "http://example.com").
			WillReturnError(errUnknown)

		link, err := repo.Save(context.TODO(), "code1", "http://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "http://example.com", "code1", 0, time.Time{})

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "http://example.com").
			WillReturnRows(rows)

		wantLink := entity.Link{
			ID:          1,
			OriginalURL: "http://example.com",
			ShortCode:   "code1",
		}

		link, err := repo.Save(context.TODO(), "code1", "http://example.com")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, wantLink, *link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_FindByURL(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("http://example.com").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.FindByURL(context.TODO(), "http://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "http://example.com", "code1", 3, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("http://example.com").
			WillReturnRows(rows)

		link, err := repo.FindByURL(context.TODO(), "http://example.com")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, "code1", link.ShortCode)
		assert.Equal(t, int64(3), link.Clicks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_FindByCode(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("zzzzzz").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.FindByCode(context.TODO(), "zzzzzz")

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		link, err := repo.FindByCode(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "http://example.com", "code1", 0, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("code1").
			WillReturnRows(rows)

		link, err := repo.FindByCode(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, "http://example.com", link.OriginalURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_CodeExists(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("code1").
			WillReturnRows(rows)

		exists, err := repo.CodeExists(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not exist", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows([]string{"exists"}).AddRow(false)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("code1").
			WillReturnRows(rows)

		exists, err := repo.CodeExists(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		exists, err := repo.CodeExists(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_IncrementClicks(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.IncrementClicks(context.TODO(), 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("affected rows error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))

		err := repo.IncrementClicks(context.TODO(), 1)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errAffectedRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.IncrementClicks(context.TODO(), 1)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_Recent(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs(5).
			WillReturnError(errUnknown)

		links, err := repo.Recent(context.TODO(), 5)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, links)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(2, "http://example.org", "code2", 0, time.Time{}).
			AddRow(1, "http://example.com", "code1", 7, time.Time{})

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs(5).
			WillReturnRows(rows)

		links, err := repo.Recent(context.TODO(), 5)

		assert.NoError(t, err)
		assert.Len(t, links, 2)
		assert.Equal(t, int64(2), links[0].ID)
		assert.Equal(t, int64(1), links[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
