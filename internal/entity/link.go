// Package entity defines the Link entity and the errors shared across layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrEmptyURL is returned when a shorten request contains no URL.
	ErrEmptyURL = errors.New("empty url")
	// ErrInvalidURL is returned when the submitted URL is not structurally valid.
	ErrInvalidURL = errors.New("invalid url")
	// ErrShortCodeExists is returned when an insert would duplicate an existing short code.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrLinkNotFound is returned when no link matches the requested short code or URL.
	ErrLinkNotFound = errors.New("link not found")
)

// Link represents a stored mapping from a short code to its original URL.
type Link struct {
	ID          int64     // ID is the unique identifier of the link in the database.
	OriginalURL string    // OriginalURL is the destination the short code resolves to.
	ShortCode   string    // ShortCode is the generated code used in short links.
	Clicks      int64     // Clicks is the number of times the short link has been resolved.
	CreatedAt   time.Time // CreatedAt is the timestamp when the link was created.
}
