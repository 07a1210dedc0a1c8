package domain

import "time"

// Listing represents a normalized product record returned by one retailer
type Listing struct {
	Title        string   `json:"title"`
	PriceRaw     string   `json:"price,omitempty"`        // As shown by the retailer, e.g. "₹1,299"
	PriceNumeric *float64 `json:"priceNumeric,omitempty"` // nil when the raw price did not parse
	Currency     string   `json:"currency,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	ProductLink  string   `json:"productLink,omitempty"`
	Rating       string   `json:"rating,omitempty"`
	ReviewCount  string   `json:"reviews,omitempty"`
	Retailer     string   `json:"retailer"`
	Error        string   `json:"error,omitempty"`
}

// HasPrice reports whether the listing carries a parsed numeric price
func (l Listing) HasPrice() bool {
	return l.PriceNumeric != nil
}

// RetailerQuery is the value sent to every retailer for one search
type RetailerQuery struct {
	Text                string `json:"text"`
	MaxResultsPerSource int    `json:"maxResultsPerSource"`
}

// PriceRange is the spread of numeric prices across listings
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PriceAnalysis is the best-deal verdict over a set of listings
type PriceAnalysis struct {
	BestPrice    float64    `json:"bestPrice"`
	BestRetailer string     `json:"bestRetailer"`
	PriceRange   PriceRange `json:"priceRange"`
	Savings      float64    `json:"savings"`
}

// OutcomeStatus classifies the result of a single retailer call
type OutcomeStatus string

const (
	OutcomeOK     OutcomeStatus = "ok"
	OutcomeEmpty  OutcomeStatus = "empty"
	OutcomeFailed OutcomeStatus = "failed"
)

// SearchOutcome is the explicit result of one retailer adapter call.
// Listings is nil unless Status is OutcomeOK.
type SearchOutcome struct {
	Retailer string        `json:"retailer"`
	Status   OutcomeStatus `json:"status"`
	Query    RetailerQuery `json:"-"`
	Listings []Listing     `json:"-"`
	Err      error         `json:"-"`
	Elapsed  time.Duration `json:"-"`
}

// SourceReport is the wire form of a SearchOutcome
type SourceReport struct {
	Retailer  string        `json:"retailer"`
	Status    OutcomeStatus `json:"status"`
	Count     int           `json:"count"`
	Error     string        `json:"error,omitempty"`
	ElapsedMs int64         `json:"elapsedMs"`
}

// Report converts the outcome to its wire form
func (o SearchOutcome) Report() SourceReport {
	r := SourceReport{
		Retailer:  o.Retailer,
		Status:    o.Status,
		Count:     len(o.Listings),
		ElapsedMs: o.Elapsed.Milliseconds(),
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	return r
}

// ProductDetails holds extra information scraped from a single product page
type ProductDetails struct {
	URL              string   `json:"url"`
	Description      string   `json:"description"`
	AdditionalImages []string `json:"additionalImages"`
}
