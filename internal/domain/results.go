package domain

// RawSignals is everything the capability providers returned for one image
type RawSignals struct {
	Detections []ObjectDetection `json:"detections"`
	Caption    string            `json:"caption"`
	Texts      []RecognizedText  `json:"extractedText"`
	Degraded   []SignalSource    `json:"degraded,omitempty"` // Providers that failed and were treated as empty
}

// CandidateResult pairs one candidate identity with its deduplicated listings
type CandidateResult struct {
	Identity   CandidateIdentity `json:"identity"`
	Listings   []Listing         `json:"listings"`
	TotalFound int               `json:"totalFound"`
	Analysis   *PriceAnalysis    `json:"analysis,omitempty"`
}

// FusionResult is the response of the identify-then-shop flow
type FusionResult struct {
	Candidates []CandidateResult `json:"candidates"`
	RawSignals RawSignals        `json:"rawSignals"`
	Summary    string            `json:"summary"`
}

// AggregationResult is the response of the search-only flows
type AggregationResult struct {
	Query      string         `json:"query"`
	Listings   []Listing      `json:"listings"`
	TotalFound int            `json:"totalFound"`
	Summary    string         `json:"summary"`
	Analysis   *PriceAnalysis `json:"analysis,omitempty"`
	Sources    []SourceReport `json:"sources,omitempty"`
}

// PriceComparisonRequest asks for a direct price check across selected retailers
type PriceComparisonRequest struct {
	ProductName string   `json:"product_name" binding:"required"`
	Storage     string   `json:"storage,omitempty"`
	Color       string   `json:"color,omitempty"`
	Sites       []string `json:"sites,omitempty"`
}

// PriceComparisonResult is the response of a price comparison
type PriceComparisonResult struct {
	Query    string            `json:"query"`
	Prices   map[string]string `json:"prices"`
	Listings []Listing         `json:"productDetails"`
	Analysis *PriceAnalysis    `json:"analysis,omitempty"`
	Message  string            `json:"message,omitempty"`
}
