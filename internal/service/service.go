// Package service holds the link shortening and resolution logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tmatsuo/go-shorty/internal/entity"
	"github.com/tmatsuo/go-shorty/internal/shortcode"
)

// maxAllocAttempts bounds how many default-length codes are tried before
// falling back to a single longer code.
const maxAllocAttempts = 5

// LinkRepository defines the storage operations the service relies on.
type LinkRepository interface {
	// Save inserts a new link and returns the stored row. A duplicate short
	// code fails with entity.ErrShortCodeExists.
	Save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error)

	// FindByURL returns the earliest link stored for the given original URL,
	// or entity.ErrLinkNotFound.
	FindByURL(ctx context.Context, originalURL string) (*entity.Link, error)

	// FindByCode returns the link with the exact short code, or
	// entity.ErrLinkNotFound.
	FindByCode(ctx context.Context, shortCode string) (*entity.Link, error)

	// CodeExists reports whether a short code is already taken.
	CodeExists(ctx context.Context, shortCode string) (bool, error)

	// IncrementClicks atomically bumps the click counter of the link with
	// the given id.
	IncrementClicks(ctx context.Context, id int64) error

	// Recent returns the n most recently created links, newest first.
	Recent(ctx context.Context, n int) ([]*entity.Link, error)
}

// LinkService implements shortening, resolution and listing of links.
type LinkService struct {
	repo     LinkRepository
	logger   *slog.Logger
	validate *validator.Validate
}

func NewLinkService(repo LinkRepository, logger *slog.Logger) *LinkService {
	return &LinkService{
		repo:     repo,
		logger:   logger,
		validate: validator.New(),
	}
}

// Shorten maps raw user input to a stored link. Submitting a URL that is
// already stored returns the existing link without minting a new code.
func (s *LinkService) Shorten(ctx context.Context, rawURL string) (*entity.Link, error) {
	const op = "service.LinkService.Shorten"

	originalURL, err := s.normalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := s.repo.FindByURL(ctx, originalURL)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, entity.ErrLinkNotFound) {
		return nil, fmt.Errorf("%s: failed to check for existing link: %w", op, err)
	}

	code, err := s.allocateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err = s.repo.Save(ctx, code, originalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
	}

	return link, nil
}

// normalizeURL trims the input, prepends http:// when no scheme is present
// and validates the result. Validation is purely syntactic; the target is
// never fetched.
func (s *LinkService) normalizeURL(rawURL string) (string, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return "", entity.ErrEmptyURL
	}

	if !hasHTTPScheme(u) {
		u = "http://" + u
	}

	if err := s.validate.Var(u, "http_url"); err != nil {
		return "", entity.ErrInvalidURL
	}

	return u, nil
}

func hasHTTPScheme(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// allocateCode picks an unused short code. The existence pre-check is only
// an optimization; the unique index on short_code is the authority, so a
// concurrent allocation of the same code still fails at Save.
func (s *LinkService) allocateCode(ctx context.Context) (string, error) {
	for i := 0; i < maxAllocAttempts; i++ {
		code, err := shortcode.New(shortcode.DefaultLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	// Every attempt collided. Use a single longer code with no pre-check;
	// a duplicate at this length fails the whole shorten attempt.
	code, err := shortcode.New(shortcode.FallbackLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate fallback short code: %w", err)
	}

	return code, nil
}

// Resolve returns the link for a short code and counts the click. The
// counter update is best-effort: a failure is logged and resolution still
// succeeds, so the redirect is never blocked by click tracking.
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "service.LinkService.Resolve"

	link, err := s.repo.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if err := s.repo.IncrementClicks(ctx, link.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to count click",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	} else {
		link.Clicks++
	}

	return link, nil
}

// Recent returns the n most recently created links, newest first.
func (s *LinkService) Recent(ctx context.Context, n int) ([]*entity.Link, error) {
	const op = "service.LinkService.Recent"

	links, err := s.repo.Recent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list recent links: %w", op, err)
	}

	return links, nil
}
