package usecase

import (
	"regexp"
	"strings"

	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
)

const maxQueryLength = 100

// Compiled regex patterns for query preprocessing
var (
	// Characters that retailer search pages reject or treat as operators
	querySpecialCharsRegex = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~` + "`" + `"]`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)

	// Cache key normalization
	nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// QueryPreprocessor cleans user and fused queries before they reach retailers
type QueryPreprocessor struct {
	enableDebugLogging bool
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// PreprocessQuery strips operator characters, normalizes whitespace and caps the
// length at a word boundary. Returns "" for blank input.
func (p *QueryPreprocessor) PreprocessQuery(query string) string {
	original := query

	cleaned := strings.ReplaceAll(query, "&", " and ")
	cleaned = querySpecialCharsRegex.ReplaceAllString(cleaned, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
		cleaned = strings.ToValidUTF8(cleaned, "")
	}

	if p.enableDebugLogging {
		logging.Debug().Str("input", original).Str("output", cleaned).Msg("query preprocessed")
	}

	return cleaned
}

// BuildSpecQuery joins a product name with optional storage and color specs,
// e.g. ("iPhone 15", "128GB", "Black") -> "iPhone 15 128GB Black"
func BuildSpecQuery(productName, storage, color string) string {
	parts := []string{strings.TrimSpace(productName)}
	if s := strings.TrimSpace(storage); s != "" {
		parts = append(parts, s)
	}
	if c := strings.TrimSpace(color); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, " ")
}

// FilterBySpecs keeps priced listings whose title mentions the requested
// storage and color (case-insensitive). Empty specs do not filter.
func FilterBySpecs(listings []domain.Listing, storage, color string) []domain.Listing {
	storage = strings.ToLower(strings.TrimSpace(storage))
	color = strings.ToLower(strings.TrimSpace(color))

	var filtered []domain.Listing
	for _, l := range listings {
		if !l.HasPrice() {
			continue
		}
		title := strings.ToLower(l.Title)
		if storage != "" && !strings.Contains(title, storage) {
			continue
		}
		if color != "" && !strings.Contains(title, color) {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, removes special characters, and trims whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
