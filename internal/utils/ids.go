package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ShortIDLength is the length of generated SKU, cargo and file identifiers
const ShortIDLength = 8

// ShortID returns the first eight hex characters of a random UUID.
// Uniqueness is enforced by the database primary key, not by the generator.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:ShortIDLength]
}
