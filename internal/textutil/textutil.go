// Package textutil holds small text helpers shared by segmentation,
// ingestion and retrieval.
package textutil

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeSpace collapses all whitespace runs to single spaces and trims.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// EstimateTokens approximates the token count of a text as word count x 1.3,
// rounded down. Exact tokenization is not required for chunk sizing; empty
// text still counts as one token so size checks never divide by zero.
func EstimateTokens(s string) int {
	words := len(strings.Fields(s))
	if words < 1 {
		words = 1
	}
	return int(float64(words) * 1.3)
}

// StableHash returns the hex SHA-256 of a string. Used for document and
// chunk identity so re-ingesting identical content resolves to the same ids.
func StableHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:])
}
