package usecase

import (
	"strings"
	"testing"

	"github.com/shoplens/backend/internal/domain"
)

func TestNewQueryPreprocessor(t *testing.T) {
	t.Run("creates preprocessor with debug logging disabled", func(t *testing.T) {
		p := NewQueryPreprocessor(false)
		if p.enableDebugLogging {
			t.Error("expected debug logging to be disabled")
		}
	})

	t.Run("creates preprocessor with debug logging enabled", func(t *testing.T) {
		p := NewQueryPreprocessor(true)
		if !p.enableDebugLogging {
			t.Error("expected debug logging to be enabled")
		}
	})
}

func TestPreprocessQuery(t *testing.T) {
	p := NewQueryPreprocessor(false)

	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "keeps plain query",
			query: "wireless headphones",
			want:  "wireless headphones",
		},
		{
			name:  "trims and collapses whitespace",
			query: "  apple   phone  S21 ",
			want:  "apple phone S21",
		},
		{
			name:  "replaces ampersand",
			query: "black&decker drill",
			want:  "black and decker drill",
		},
		{
			name:  "strips operator characters",
			query: `"sony" (WH-1000XM4) #deal`,
			want:  "sony WH-1000XM4 deal",
		},
		{
			name:  "keeps hyphens and dots",
			query: "t-shirt 2.5 inch",
			want:  "t-shirt 2.5 inch",
		},
		{
			name:  "blank query",
			query: "   ",
			want:  "",
		},
		{
			name:  "only special characters",
			query: "#@!",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.PreprocessQuery(tc.query)
			if got != tc.want {
				t.Errorf("PreprocessQuery(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestPreprocessQuery_LongQuery(t *testing.T) {
	p := NewQueryPreprocessor(true)

	long := strings.Repeat("headphones ", 20)
	got := p.PreprocessQuery(long)

	if len(got) > maxQueryLength {
		t.Errorf("len = %d, want <= %d", len(got), maxQueryLength)
	}
	if strings.HasSuffix(got, " ") || strings.HasSuffix(got, "headphone") {
		t.Errorf("expected cut at word boundary, got %q", got)
	}
}

func TestBuildSpecQuery(t *testing.T) {
	testCases := []struct {
		name    string
		product string
		storage string
		color   string
		want    string
	}{
		{"name only", "iPhone 15", "", "", "iPhone 15"},
		{"with storage", "iPhone 15", "128GB", "", "iPhone 15 128GB"},
		{"with color", "iPhone 15", "", "Black", "iPhone 15 Black"},
		{"with both", " iPhone 15 ", " 128GB ", "Black", "iPhone 15 128GB Black"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildSpecQuery(tc.product, tc.storage, tc.color); got != tc.want {
				t.Errorf("BuildSpecQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFilterBySpecs(t *testing.T) {
	price := 79999.0
	listings := []domain.Listing{
		{Title: "Apple iPhone 15 (128GB) - Black", PriceNumeric: &price, Retailer: "amazon"},
		{Title: "Apple iPhone 15 (256GB) - Blue", PriceNumeric: &price, Retailer: "flipkart"},
		{Title: "Apple iPhone 15 128GB Black", Retailer: "amazon"}, // no price
	}

	t.Run("filters by storage and color", func(t *testing.T) {
		got := FilterBySpecs(listings, "128gb", "BLACK")
		if len(got) != 1 || got[0].Retailer != "amazon" {
			t.Errorf("got %+v, want only the priced amazon listing", got)
		}
	})

	t.Run("empty specs keep all priced listings", func(t *testing.T) {
		got := FilterBySpecs(listings, "", "")
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})

	t.Run("no match", func(t *testing.T) {
		if got := FilterBySpecs(listings, "1TB", ""); len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})
}

func TestNormalizeForCacheKey(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Wireless  Headphones!", "wireless headphones"},
		{"Sony WH-1000XM4", "sony wh1000xm4"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := normalizeForCacheKey(tc.input); got != tc.want {
				t.Errorf("normalizeForCacheKey(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
