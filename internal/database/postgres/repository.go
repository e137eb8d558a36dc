package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tmatsuo/go-shorty/internal/entity"
)

type linkRecord struct {
	ID          int64     `db:"id"`
	OriginalURL string    `db:"original_url"`
	ShortCode   string    `db:"short_code"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *linkRecord) toLink() *entity.Link {
	return &entity.Link{
		ID:          r.ID,
		OriginalURL: r.OriginalURL,
		ShortCode:   r.ShortCode,
		Clicks:      r.Clicks,
		CreatedAt:   r.CreatedAt,
	}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

// Save inserts a new link. The database assigns id, clicks and created_at.
// A duplicate short code surfaces as entity.ErrShortCodeExists; the unique
// index is what closes the check-then-insert race during code allocation.
func (r *LinkRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error) {
	const op = "database.postgres.LinkRepository.Save"

	rec := new(linkRecord)
	query := `INSERT INTO links (short_code, original_url)
		VALUES ($1, $2)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, originalURL)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert link record: %w", op, err)
	}

	return rec.toLink(), nil
}

// FindByURL returns the earliest stored link for the given original URL.
// Ordering by id keeps the dedup answer stable (first write wins).
func (r *LinkRepository) FindByURL(ctx context.Context, originalURL string) (*entity.Link, error) {
	const op = "database.postgres.LinkRepository.FindByURL"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE original_url = $1
		ORDER BY id
		LIMIT 1`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to find link by url: %w", op, err)
	}

	return rec.toLink(), nil
}

// FindByCode returns the link with the exact short code.
func (r *LinkRepository) FindByCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "database.postgres.LinkRepository.FindByCode"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to find link by short code: %w", op, err)
	}

	return rec.toLink(), nil
}

// CodeExists reports whether a short code is already taken. It is used as a
// cheap pre-check during allocation; Save remains the authority.
func (r *LinkRepository) CodeExists(ctx context.Context, shortCode string) (bool, error) {
	const op = "database.postgres.LinkRepository.CodeExists"

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`

	if err := r.db.GetContext(ctx, &exists, query, shortCode); err != nil {
		return false, fmt.Errorf("%s: failed to check short code: %w", op, err)
	}

	return exists, nil
}

// IncrementClicks bumps the click counter in a single UPDATE, so concurrent
// resolutions of the same link never lose updates.
func (r *LinkRepository) IncrementClicks(ctx context.Context, id int64) error {
	const op = "database.postgres.LinkRepository.IncrementClicks"

	query := `UPDATE links
		SET clicks = clicks + 1
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

// Recent returns the n most recently created links, newest first.
func (r *LinkRepository) Recent(ctx context.Context, n int) ([]*entity.Link, error) {
	const op = "database.postgres.LinkRepository.Recent"

	var recs []linkRecord
	query := `SELECT * FROM links
		ORDER BY id DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &recs, query, n); err != nil {
		return nil, fmt.Errorf("%s: failed to list recent links: %w", op, err)
	}

	links := make([]*entity.Link, 0, len(recs))
	for i := range recs {
		links = append(links, recs[i].toLink())
	}

	return links, nil
}
