package retailer

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/k3a/html2text"
	"github.com/shoplens/backend/internal/domain"
)

const maxAdditionalImages = 5

// DetailsConfig names the retailer sites whose product pages may be fetched.
// Empty base URLs fall back to the public storefronts.
type DetailsConfig struct {
	AmazonBaseURL   string
	FlipkartBaseURL string
}

// DetailsExtractor reads description and images from Amazon and Flipkart
// product pages. It implements domain.DetailsFetcher.
type DetailsExtractor struct {
	source DocumentSource
	hosts  map[string]string // lower-cased host -> retailer key
}

// NewDetailsExtractor creates a details extractor reading pages from source
func NewDetailsExtractor(source DocumentSource, cfg DetailsConfig) *DetailsExtractor {
	hosts := make(map[string]string, 2)
	if host := hostOf(AmazonConfig(cfg.AmazonBaseURL).BaseURL); host != "" {
		hosts[host] = KeyAmazon
	}
	if host := hostOf(FlipkartConfig(cfg.FlipkartBaseURL).BaseURL); host != "" {
		hosts[host] = KeyFlipkart
	}
	return &DetailsExtractor{source: source, hosts: hosts}
}

// FetchDetails loads productURL and extracts what the retailer exposes.
// URLs outside the configured retailer hosts are rejected without a request.
func (d *DetailsExtractor) FetchDetails(ctx context.Context, productURL string) (*domain.ProductDetails, error) {
	parsed, err := url.Parse(productURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: a valid product url is required", domain.ErrInvalidInput)
	}
	key, ok := d.hosts[strings.ToLower(parsed.Hostname())]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported product host %q", domain.ErrInvalidInput, parsed.Hostname())
	}

	doc, err := d.source.Document(ctx, productURL)
	if err != nil {
		return nil, err
	}

	details := &domain.ProductDetails{
		URL:              productURL,
		AdditionalImages: []string{},
	}

	switch key {
	case KeyAmazon:
		details.Description = descriptionText(doc.Find("#feature-bullets").First())
		doc.Find("img.a-dynamic-image").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, ok := img.Attr("src")
			if ok && src != "" && !slices.Contains(details.AdditionalImages, src) {
				details.AdditionalImages = append(details.AdditionalImages, src)
			}
			return len(details.AdditionalImages) < maxAdditionalImages
		})
	case KeyFlipkart:
		details.Description = descriptionText(doc.Find("div._1mXcCf").First())
	}

	return details, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// descriptionText converts a description block to plain text
func descriptionText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	markup, err := s.Html()
	if err != nil {
		return strings.TrimSpace(s.Text())
	}
	return strings.Join(strings.Fields(html2text.HTML2Text(markup)), " ")
}
