package service

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"github.com/pulseboard/pulseboard/internal/model"
)

const (
	slugAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
	maxSlugRetries = 5
)

var slugRegex = regexp.MustCompile(`^[0-9a-z]{8}$`)

// ValidSlug reports whether s has the shape of an issued slug.
func ValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// generateSlug returns a random slug using crypto/rand.
func generateSlug() (string, error) {
	b := make([]byte, model.SlugLength)
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}
