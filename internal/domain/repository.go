package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are JSON encoded; Get decodes into dest.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ObjectDetector finds labelled objects in an image
type ObjectDetector interface {
	DetectObjects(ctx context.Context, image []byte) ([]ObjectDetection, error)
}

// CaptionGenerator describes an image in free text
type CaptionGenerator interface {
	Caption(ctx context.Context, image []byte) (string, error)
}

// TextRecognizer reads text fragments printed in an image
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) ([]RecognizedText, error)
}

// RetailerAdapter searches one external retail source.
// Search never panics past its boundary; failures are reported in the outcome.
type RetailerAdapter interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) SearchOutcome
}

// PriceSource looks up the top listing price for a query on one retailer.
// LookupPrice always returns exactly one listing, error-flagged on failure.
type PriceSource interface {
	Key() string
	LookupPrice(ctx context.Context, query string) Listing
}

// DetailsFetcher extracts extra information from a product page
type DetailsFetcher interface {
	FetchDetails(ctx context.Context, productURL string) (*ProductDetails, error)
}
