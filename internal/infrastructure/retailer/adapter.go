package retailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shoplens/backend/internal/domain"
)

// AdapterConfig describes how to search one retailer and read its result page
type AdapterConfig struct {
	Key           string   // Stable source key, e.g. "amazon"
	Retailer      string   // Name shown on listings, e.g. "Amazon India"
	BaseURL       string   // Scheme and host; relative links resolve against it
	SearchPath    string   // Path and query with a single %s for the escaped query
	Containers    []string // Result container selectors, first one that matches wins
	Fields        FieldSet
	FallbackTitle string // Used when only an image was found
	RequireImage  bool   // Emit only results with both title and image
}

// HTMLAdapter implements domain.RetailerAdapter over a selector-driven result page
type HTMLAdapter struct {
	cfg    AdapterConfig
	source DocumentSource
}

// NewHTMLAdapter creates an adapter that reads pages from source
func NewHTMLAdapter(cfg AdapterConfig, source DocumentSource) *HTMLAdapter {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTMLAdapter{cfg: cfg, source: source}
}

// Name returns the source key
func (a *HTMLAdapter) Name() string {
	return a.cfg.Key
}

// Retailer returns the display name put on listings
func (a *HTMLAdapter) Retailer() string {
	return a.cfg.Retailer
}

// SearchURL builds the result page URL for query
func (a *HTMLAdapter) SearchURL(query string) string {
	return a.cfg.BaseURL + fmt.Sprintf(a.cfg.SearchPath, url.QueryEscape(query))
}

// Search fetches the result page and extracts at most maxResults listings
func (a *HTMLAdapter) Search(ctx context.Context, query string, maxResults int) domain.SearchOutcome {
	outcome := domain.SearchOutcome{Retailer: a.cfg.Key}
	if maxResults <= 0 {
		outcome.Status = domain.OutcomeEmpty
		return outcome
	}

	doc, err := a.source.Document(ctx, a.SearchURL(query))
	if err != nil {
		outcome.Status = domain.OutcomeFailed
		outcome.Err = err
		return outcome
	}

	outcome.Listings = a.Extract(doc.Selection, maxResults)
	outcome.Status = domain.OutcomeOK
	if len(outcome.Listings) == 0 {
		outcome.Status = domain.OutcomeEmpty
		outcome.Listings = nil
	}
	return outcome
}

// Extract reads listings from a parsed result page
func (a *HTMLAdapter) Extract(page *goquery.Selection, maxResults int) []domain.Listing {
	containers := a.containers(page)
	if containers == nil {
		return nil
	}

	var listings []domain.Listing
	containers.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if l, ok := a.extractListing(s); ok {
			listings = append(listings, l)
		}
		return len(listings) < maxResults
	})
	return listings
}

func (a *HTMLAdapter) containers(page *goquery.Selection) *goquery.Selection {
	for _, selector := range a.cfg.Containers {
		if found := page.Find(selector); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// extractListing applies the field set to one container
func (a *HTMLAdapter) extractListing(s *goquery.Selection) (domain.Listing, bool) {
	title := extract(a.cfg.Fields.Title, s)
	if strings.EqualFold(title, "N/A") {
		title = ""
	}
	image := extract(a.cfg.Fields.Image, s)

	if a.cfg.RequireImage {
		if title == "" || image == "" {
			return domain.Listing{}, false
		}
	} else if title == "" && image == "" {
		return domain.Listing{}, false
	}

	if title == "" {
		title = a.cfg.FallbackTitle
	}

	rawPrice := extract(a.cfg.Fields.Price, s)
	price, currency := ParsePrice(rawPrice)

	return domain.Listing{
		Title:        title,
		PriceRaw:     rawPrice,
		PriceNumeric: price,
		Currency:     currency,
		ImageURL:     image,
		ProductLink:  a.resolveLink(extract(a.cfg.Fields.Link, s)),
		Rating:       extract(a.cfg.Fields.Rating, s),
		ReviewCount:  extract(a.cfg.Fields.Reviews, s),
		Retailer:     a.cfg.Retailer,
	}, true
}

// resolveLink makes href absolute against the base URL
func (a *HTMLAdapter) resolveLink(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(a.cfg.BaseURL + "/")
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
