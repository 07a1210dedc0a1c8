package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Orchestrator defaults
const (
	defaultTextMaxResults  = 3
	defaultImageMaxResults = 2
	defaultProviderTimeout = 30 * time.Second
)

var defaultPriceSites = []string{"amazon", "flipkart"}

// defaultCurrency is shown when a retailer price carries no symbol
const defaultCurrency = "₹"

var pricePrinter = message.NewPrinter(language.English)

// ProviderObserver receives the result of each capability provider call
type ProviderObserver interface {
	ObserveProvider(source domain.SignalSource, err error, elapsed time.Duration)
}

// ShoppingServiceConfig holds configuration for the shopping service
type ShoppingServiceConfig struct {
	TextMaxResults     int           // Listings per source for text searches
	ImageMaxResults    int           // Listings per source per detected product
	ProviderTimeout    time.Duration // Budget for each capability provider call
	SearchCacheTTL     time.Duration // 0 disables caching of text searches
	DefaultPriceSites  []string
	EnableDebugLogging bool
}

// ShoppingDeps are the process-scoped handles the service is built from.
// A nil provider is treated as permanently unavailable.
type ShoppingDeps struct {
	Detector         domain.ObjectDetector
	Captioner        domain.CaptionGenerator
	Recognizer       domain.TextRecognizer
	Fusion           *FusionService
	Aggregator       *Aggregator
	PriceSources     []domain.PriceSource
	Details          domain.DetailsFetcher
	Cache            domain.CacheRepository
	ProviderObserver ProviderObserver
}

// ShoppingService ties identification, retailer search and price analysis together
type ShoppingService struct {
	detector         domain.ObjectDetector
	captioner        domain.CaptionGenerator
	recognizer       domain.TextRecognizer
	fusion           *FusionService
	aggregator       *Aggregator
	priceSources     []domain.PriceSource
	details          domain.DetailsFetcher
	cache            domain.CacheRepository
	providerObserver ProviderObserver
	preprocessor     *QueryPreprocessor

	textMaxResults  int
	imageMaxResults int
	providerTimeout time.Duration
	searchCacheTTL  time.Duration
	defaultSites    []string
}

// NewShoppingService creates a new shopping service with dependencies
func NewShoppingService(deps ShoppingDeps, config ShoppingServiceConfig) *ShoppingService {
	fusion := deps.Fusion
	if fusion == nil {
		fusion = NewFusionService(FusionConfig{})
	}

	aggregator := deps.Aggregator
	if aggregator == nil {
		aggregator = NewAggregator(nil, AggregatorConfig{})
	}

	textMax := config.TextMaxResults
	if textMax <= 0 {
		textMax = defaultTextMaxResults
	}

	imageMax := config.ImageMaxResults
	if imageMax <= 0 {
		imageMax = defaultImageMaxResults
	}

	providerTimeout := config.ProviderTimeout
	if providerTimeout <= 0 {
		providerTimeout = defaultProviderTimeout
	}

	sites := config.DefaultPriceSites
	if len(sites) == 0 {
		sites = defaultPriceSites
	}

	return &ShoppingService{
		detector:         deps.Detector,
		captioner:        deps.Captioner,
		recognizer:       deps.Recognizer,
		fusion:           fusion,
		aggregator:       aggregator,
		priceSources:     deps.PriceSources,
		details:          deps.Details,
		cache:            deps.Cache,
		providerObserver: deps.ProviderObserver,
		preprocessor:     NewQueryPreprocessor(config.EnableDebugLogging),
		textMaxResults:   textMax,
		imageMaxResults:  imageMax,
		providerTimeout:  providerTimeout,
		searchCacheTTL:   config.SearchCacheTTL,
		defaultSites:     sites,
	}
}

// IdentifyAndSearch runs the identify-then-shop flow: collect signals from the
// image, fuse them into candidates, and search every retailer for each one.
// Only a missing image is an error; every other failure degrades the result.
func (s *ShoppingService) IdentifyAndSearch(ctx context.Context, image []byte) (*domain.FusionResult, error) {
	ctx = logging.EnsureCorrelationID(ctx)
	flow := newRequestFlow(ctx, "identify")

	if len(image) == 0 {
		return nil, flow.fail(fmt.Errorf("%w: image is required", domain.ErrInvalidInput))
	}

	raw := s.collectSignals(ctx, image)
	flow.advance(StateSignalsCollected)

	candidates := s.fusion.Fuse(raw.Detections, raw.Caption, raw.Texts)
	flow.advance(StateIdentitiesFused)

	results := make([]domain.CandidateResult, len(candidates))
	var g errgroup.Group
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			results[i] = s.searchCandidate(ctx, candidate)
			return nil
		})
	}
	_ = g.Wait()
	flow.advance(StateSourcesQueried)
	flow.advance(StateDeduplicated)
	flow.advance(StateAnalyzed)

	result := &domain.FusionResult{
		Candidates: results,
		RawSignals: raw,
		Summary:    identifySummary(results),
	}
	flow.advance(StateResponded)

	return result, nil
}

// SearchByText runs the search-only flow for a user query
func (s *ShoppingService) SearchByText(ctx context.Context, query string) (*domain.AggregationResult, error) {
	ctx = logging.EnsureCorrelationID(ctx)
	flow := newRequestFlow(ctx, "search")

	cleaned := s.preprocessor.PreprocessQuery(query)
	if cleaned == "" {
		return nil, flow.fail(fmt.Errorf("%w: search query is required", domain.ErrInvalidInput))
	}

	return s.searchText(ctx, flow, strings.TrimSpace(query), cleaned), nil
}

// SearchImageWithQuery searches retailers with the user's query, bypassing
// identification. The image must still be present.
func (s *ShoppingService) SearchImageWithQuery(ctx context.Context, image []byte, query string) (*domain.AggregationResult, error) {
	ctx = logging.EnsureCorrelationID(ctx)
	flow := newRequestFlow(ctx, "upload-search")

	if len(image) == 0 {
		return nil, flow.fail(fmt.Errorf("%w: image is required", domain.ErrInvalidInput))
	}

	cleaned := s.preprocessor.PreprocessQuery(query)
	if cleaned == "" {
		return nil, flow.fail(fmt.Errorf("%w: search query is required", domain.ErrInvalidInput))
	}

	return s.searchText(ctx, flow, strings.TrimSpace(query), cleaned), nil
}

// ComparePrices looks up the top price on each selected retailer and reports the
// best deal. Unknown site keys are ignored.
func (s *ShoppingService) ComparePrices(ctx context.Context, request *domain.PriceComparisonRequest) (*domain.PriceComparisonResult, error) {
	ctx = logging.EnsureCorrelationID(ctx)

	if request == nil || strings.TrimSpace(request.ProductName) == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}

	fullQuery := BuildSpecQuery(request.ProductName, request.Storage, request.Color)
	sources := s.selectPriceSources(request.Sites)

	result := &domain.PriceComparisonResult{
		Query:    fullQuery,
		Prices:   make(map[string]string, len(sources)),
		Listings: make([]domain.Listing, len(sources)),
	}
	if len(sources) == 0 {
		result.Message = "No supported sites selected"
		return result, nil
	}

	var g errgroup.Group
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			result.Listings[i] = source.LookupPrice(ctx, fullQuery)
			return nil
		})
	}
	_ = g.Wait()

	for i, source := range sources {
		result.Prices[source.Key()] = formatSitePrice(result.Listings[i])
	}

	candidates := result.Listings
	if strings.TrimSpace(request.Storage) != "" || strings.TrimSpace(request.Color) != "" {
		candidates = FilterBySpecs(result.Listings, request.Storage, request.Color)
		if len(candidates) == 0 {
			specs := strings.TrimSpace(request.Storage + " " + request.Color)
			result.Message = fmt.Sprintf("No products found matching specifications: %s", specs)
			return result, nil
		}
	}

	result.Analysis = AnalyzePrices(candidates)
	logging.Ctx(ctx).Info().
		Str("query", fullQuery).
		Int("sites", len(sources)).
		Bool("analyzed", result.Analysis != nil).
		Msg("price comparison finished")

	return result, nil
}

// ProductDetails fetches description and images for a single product page
func (s *ShoppingService) ProductDetails(ctx context.Context, productURL string) (*domain.ProductDetails, error) {
	parsed, err := url.Parse(strings.TrimSpace(productURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: a valid product url is required", domain.ErrInvalidInput)
	}
	if s.details == nil {
		return nil, fmt.Errorf("%w: product details are not configured", domain.ErrSourceUnreachable)
	}
	return s.details.FetchDetails(ctx, parsed.String())
}

// Sources lists the retailer adapters searched by every aggregation
func (s *ShoppingService) Sources() []string {
	return s.aggregator.Sources()
}

// searchText runs one aggregation for a cleaned query, serving from cache when possible
func (s *ShoppingService) searchText(ctx context.Context, flow *requestFlow, displayQuery, cleaned string) *domain.AggregationResult {
	cacheKey := s.generateCacheKey(cleaned, s.textMaxResults)

	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		logging.Ctx(ctx).Debug().Str("key", cacheKey).Msg("search served from cache")
		cached.Query = displayQuery
		flow.advance(StateResponded)
		return cached
	}

	listings, outcomes := s.aggregator.SearchWithOutcomes(ctx, domain.RetailerQuery{
		Text:                cleaned,
		MaxResultsPerSource: s.textMaxResults,
	})
	flow.advance(StateSourcesQueried)
	flow.advance(StateDeduplicated)

	reports := make([]domain.SourceReport, len(outcomes))
	for i, o := range outcomes {
		reports[i] = o.Report()
	}

	result := &domain.AggregationResult{
		Query:      displayQuery,
		Listings:   listings,
		TotalFound: len(listings),
		Summary:    fmt.Sprintf("Found %d results for '%s'", len(listings), displayQuery),
		Analysis:   AnalyzePrices(listings),
		Sources:    reports,
	}
	flow.advance(StateAnalyzed)

	// Empty results are not cached so a recovering retailer is retried next time
	if len(listings) > 0 {
		s.setInCache(ctx, cacheKey, result)
	}
	flow.advance(StateResponded)

	return result
}

// searchCandidate runs the aggregator for one fused identity
func (s *ShoppingService) searchCandidate(ctx context.Context, candidate domain.CandidateIdentity) domain.CandidateResult {
	result := domain.CandidateResult{Identity: candidate, Listings: []domain.Listing{}}

	query := s.preprocessor.PreprocessQuery(candidate.Name)
	if query == "" {
		return result
	}

	listings := s.aggregator.SearchAllSources(ctx, domain.RetailerQuery{
		Text:                query,
		MaxResultsPerSource: s.imageMaxResults,
	})
	result.Listings = listings
	result.TotalFound = len(listings)
	result.Analysis = AnalyzePrices(listings)
	return result
}

// collectSignals calls the three providers concurrently. A failing provider
// contributes an empty signal and is listed in Degraded.
func (s *ShoppingService) collectSignals(ctx context.Context, image []byte) domain.RawSignals {
	var (
		detections   []domain.ObjectDetection
		caption      string
		texts        []domain.RecognizedText
		detectErr    error
		captionErr   error
		recognizeErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		detections, detectErr = callProvider(ctx, s, domain.SourceObjectDetector, s.detector != nil,
			func(ctx context.Context) ([]domain.ObjectDetection, error) {
				return s.detector.DetectObjects(ctx, image)
			})
		return nil
	})
	g.Go(func() error {
		caption, captionErr = callProvider(ctx, s, domain.SourceCaption, s.captioner != nil,
			func(ctx context.Context) (string, error) {
				return s.captioner.Caption(ctx, image)
			})
		return nil
	})
	g.Go(func() error {
		texts, recognizeErr = callProvider(ctx, s, domain.SourceTextRecognition, s.recognizer != nil,
			func(ctx context.Context) ([]domain.RecognizedText, error) {
				return s.recognizer.RecognizeText(ctx, image)
			})
		return nil
	})
	_ = g.Wait()

	raw := domain.RawSignals{
		Detections: detections,
		Caption:    caption,
		Texts:      texts,
	}
	if detectErr != nil {
		raw.Detections = []domain.ObjectDetection{}
		raw.Degraded = append(raw.Degraded, domain.SourceObjectDetector)
	}
	if captionErr != nil {
		raw.Caption = ""
		raw.Degraded = append(raw.Degraded, domain.SourceCaption)
	}
	if recognizeErr != nil {
		raw.Texts = []domain.RecognizedText{}
		raw.Degraded = append(raw.Degraded, domain.SourceTextRecognition)
	}
	if raw.Detections == nil {
		raw.Detections = []domain.ObjectDetection{}
	}
	if raw.Texts == nil {
		raw.Texts = []domain.RecognizedText{}
	}

	return raw
}

// callProvider runs one provider call under the provider timeout, converting
// panics and a missing provider into ErrProviderUnavailable.
func callProvider[T any](
	ctx context.Context,
	s *ShoppingService,
	source domain.SignalSource,
	configured bool,
	fn func(ctx context.Context) (T, error),
) (result T, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", domain.ErrProviderUnavailable, source, r)
		}
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("provider", string(source)).Msg("provider degraded to empty signal")
		}
		if s.providerObserver != nil {
			s.providerObserver.ObserveProvider(source, err, time.Since(start))
		}
	}()

	if !configured {
		return result, fmt.Errorf("%w: %s not configured", domain.ErrProviderUnavailable, source)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	return fn(callCtx)
}

// selectPriceSources returns configured price sources named in sites, in
// configuration order
func (s *ShoppingService) selectPriceSources(sites []string) []domain.PriceSource {
	if len(sites) == 0 {
		sites = s.defaultSites
	}

	wanted := make(map[string]bool, len(sites))
	for _, site := range sites {
		wanted[strings.ToLower(strings.TrimSpace(site))] = true
	}

	var selected []domain.PriceSource
	for _, source := range s.priceSources {
		if wanted[strings.ToLower(source.Key())] {
			selected = append(selected, source)
		}
	}
	return selected
}

// generateCacheKey creates a normalized cache key for a text search.
// Format: "search:{normalized_query}:{max_results}"
func (s *ShoppingService) generateCacheKey(query string, maxResults int) string {
	return fmt.Sprintf("search:%s:%d", normalizeForCacheKey(query), maxResults)
}

// getFromCache retrieves a cached aggregation result
func (s *ShoppingService) getFromCache(ctx context.Context, key string) (*domain.AggregationResult, bool) {
	if s.cache == nil || s.searchCacheTTL <= 0 {
		return nil, false
	}

	var cached domain.AggregationResult
	if err := s.cache.Get(ctx, key, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

// setInCache stores an aggregation result; failures are logged, not returned
func (s *ShoppingService) setInCache(ctx context.Context, key string, result *domain.AggregationResult) {
	if s.cache == nil || s.searchCacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, result, s.searchCacheTTL); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache search result")
	}
}

// identifySummary describes how many products were detected and listings found
func identifySummary(results []domain.CandidateResult) string {
	if len(results) == 0 {
		return "No products detected in the image."
	}

	names := make([]string, len(results))
	total := 0
	for i, r := range results {
		names[i] = r.Identity.Name
		total += r.TotalFound
	}

	return fmt.Sprintf("Detected %d product(s): %s. Found %d online shopping results across multiple platforms.",
		len(results), strings.Join(names, ", "), total)
}

// formatSitePrice renders one site's price line, e.g. "₹1,299.00".
// Listings scraped without a currency glyph are shown in rupees.
func formatSitePrice(l domain.Listing) string {
	switch {
	case l.HasPrice():
		currency := l.Currency
		if currency == "" {
			currency = defaultCurrency
		}
		return currency + pricePrinter.Sprintf("%.2f", *l.PriceNumeric)
	case l.Error != "":
		return "Error: " + l.Error
	default:
		return "Price not found"
	}
}
