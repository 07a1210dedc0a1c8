package usecase

import (
	"regexp"
	"strings"

	"github.com/shoplens/backend/internal/domain"
)

// defaultDedupThreshold is the containment ratio a later title must exceed
// against an earlier kept title to be dropped
const defaultDedupThreshold = 0.6

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// titleWords normalizes a listing title into its set of words.
// Lowercases and strips punctuation; "Sony WH-1000XM4" -> {sony, wh1000xm4}.
func titleWords(title string) map[string]struct{} {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(title), "")
	words := strings.Fields(cleaned)

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// findIntersection returns the number of words present in both sets
func findIntersection(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for w := range a {
		if _, ok := b[w]; ok {
			count++
		}
	}
	return count
}

// containmentRatio is |later ∩ kept| / max(|later|, 1).
// Asymmetric on purpose: only the later title's size is the denominator.
func containmentRatio(later, kept map[string]struct{}) float64 {
	denominator := len(later)
	if denominator < 1 {
		denominator = 1
	}
	return float64(findIntersection(later, kept)) / float64(denominator)
}

// DeduplicateListings drops listings whose titles are near-duplicates of an
// earlier kept listing. Order of first occurrence is preserved.
func DeduplicateListings(listings []domain.Listing, threshold float64) []domain.Listing {
	if threshold <= 0 {
		threshold = defaultDedupThreshold
	}

	unique := make([]domain.Listing, 0, len(listings))
	kept := make([]map[string]struct{}, 0, len(listings))

	for _, listing := range listings {
		words := titleWords(listing.Title)

		duplicate := false
		for _, seen := range kept {
			if containmentRatio(words, seen) > threshold {
				duplicate = true
				break
			}
		}

		if !duplicate {
			unique = append(unique, listing)
			kept = append(kept, words)
		}
	}

	return unique
}
