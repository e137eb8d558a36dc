// Package shortcode generates the random codes used in short links.
package shortcode

import gonanoid "github.com/matoous/go-nanoid/v2"

// Alphabet is the 62-symbol set codes are drawn from. Codes double as
// unguessable identifiers, so they come from a crypto/rand-backed source.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// DefaultLength is the code length used for regular allocation attempts.
	DefaultLength = 6
	// FallbackLength is the longer code length used once the regular
	// allocation attempts are exhausted.
	FallbackLength = 8
)

// New returns a random alphanumeric code of the given length.
func New(length int) (string, error) {
	return gonanoid.Generate(Alphabet, length)
}
