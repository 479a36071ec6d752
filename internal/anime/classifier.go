// Package anime decides whether a title belongs to the anime category. The
// rule is deliberately behind a single-method interface so it can evolve (or
// be swapped for an external service) without touching the resolution
// pipeline.
package anime

import "strings"

// Classifier reports whether a title with the given genre/keyword tags is
// anime.
type Classifier interface {
	IsAnime(title string, genres []string) bool
}

// KeywordClassifier is the default heuristic: a title is anime when its tags
// say so outright, or when animation is combined with a Japanese-origin
// marker.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Tags that mark a title as anime on their own.
var directTags = map[string]bool{
	"anime":   true,
	"donghua": true,
}

// Tags that mark Japanese origin; only anime when combined with animation.
var originTags = map[string]bool{
	"japan":            true,
	"japanese":         true,
	"based on manga":   true,
	"based on a manga": true,
	"manga":            true,
	"light novel":      true,
}

// IsAnime implements Classifier.
func (c *KeywordClassifier) IsAnime(title string, genres []string) bool {
	animated := false
	origin := false

	for _, g := range genres {
		tag := strings.ToLower(strings.TrimSpace(g))
		if directTags[tag] {
			return true
		}
		if tag == "animation" || tag == "animated" {
			animated = true
		}
		if originTags[tag] {
			origin = true
		}
	}

	return animated && origin
}
