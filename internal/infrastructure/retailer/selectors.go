package retailer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls one field out of a result container. It reports false
// when the field is absent so the next fallback can be tried.
type Extractor func(s *goquery.Selection) (string, bool)

// FieldSet lists the extractor for each listing field
type FieldSet struct {
	Title   Extractor
	Price   Extractor
	Image   Extractor
	Link    Extractor
	Rating  Extractor
	Reviews Extractor
}

// Text extracts the trimmed text of the first element matching selector
func Text(selector string) Extractor {
	return func(s *goquery.Selection) (string, bool) {
		el := s.Find(selector).First()
		if el.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(el.Text())
		return text, text != ""
	}
}

// Attr extracts an attribute of the first element matching selector
func Attr(selector, attr string) Extractor {
	return func(s *goquery.Selection) (string, bool) {
		el := s.Find(selector).First()
		if el.Length() == 0 {
			return "", false
		}
		value, ok := el.Attr(attr)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}
}

// FirstOf tries extractors in order and returns the first success
func FirstOf(extractors ...Extractor) Extractor {
	return func(s *goquery.Selection) (string, bool) {
		for _, e := range extractors {
			if e == nil {
				continue
			}
			if value, ok := e(s); ok {
				return value, true
			}
		}
		return "", false
	}
}

// TextOf is FirstOf over Text extractors for each selector
func TextOf(selectors ...string) Extractor {
	extractors := make([]Extractor, len(selectors))
	for i, sel := range selectors {
		extractors[i] = Text(sel)
	}
	return FirstOf(extractors...)
}

// FirstWord keeps only the first word of e's value, e.g. "4.3 out of 5 stars" -> "4.3"
func FirstWord(e Extractor) Extractor {
	return func(s *goquery.Selection) (string, bool) {
		value, ok := e(s)
		if !ok {
			return "", false
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	}
}

// extract runs e against s, treating a nil extractor as absent
func extract(e Extractor, s *goquery.Selection) string {
	if e == nil {
		return ""
	}
	value, _ := e(s)
	return value
}
