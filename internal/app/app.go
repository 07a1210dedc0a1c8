// Package app builds the process-scoped dependency graph shared by the HTTP
// server and the CLI.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/shoplens/backend/config"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/infrastructure/cache"
	"github.com/shoplens/backend/internal/infrastructure/metrics"
	"github.com/shoplens/backend/internal/infrastructure/retailer"
	"github.com/shoplens/backend/internal/infrastructure/vision"
	"github.com/shoplens/backend/internal/logging"
	"github.com/shoplens/backend/internal/usecase"
)

const (
	redisKeyPrefix       = "shoplens"
	memoryCleanup        = 10 * time.Minute
	breakerFailures      = 5
	breakerCooldown      = 30 * time.Second
	detailsSourceName    = "details"
	defaultRetailerBurst = 1
)

// App owns the long-lived handles behind the shopping service
type App struct {
	Service  *usecase.ShoppingService
	Recorder *metrics.Recorder

	closers []func() error
}

// New wires caches, retailer sources, inference clients and the shopping
// service from cfg. A cache or browser that cannot start degrades rather than
// failing startup.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Recorder: metrics.New()}

	resultCache := a.buildCache(ctx, cfg.Cache)

	adapters, priceSources := a.buildRetailers(cfg)
	if len(adapters) == 0 {
		logging.Warn().Msg("no retailer sources enabled; searches will return empty results")
	}

	detailsSource := retailer.NewHTTPSource(detailsSourceName, a.httpSourceConfig(cfg, cfg.Search.AdapterTimeout))

	visionClient := vision.NewClient(vision.Config{
		DetectorURL:       cfg.Vision.DetectorURL,
		CaptionURL:        cfg.Vision.CaptionURL,
		OCRURL:            cfg.Vision.OCRURL,
		Timeout:           cfg.Vision.Timeout,
		MinTextConfidence: cfg.Vision.MinTextConfidence,
	})
	logVisionEndpoints(cfg.Vision)

	aggregator := usecase.NewAggregator(adapters, usecase.AggregatorConfig{
		AdapterTimeout: cfg.Search.AdapterTimeout,
		DedupThreshold: cfg.Search.DedupThreshold,
		Observer:       a.Recorder,
	})

	fusion := usecase.NewFusionService(usecase.FusionConfig{
		ConfidenceFloor:   cfg.Fusion.ConfidenceFloor,
		CaptionConfidence: cfg.Fusion.CaptionConfidence,
		KnownBrands:       cfg.Fusion.KnownBrands,
	})

	details := retailer.NewDetailsExtractor(detailsSource, retailer.DetailsConfig{
		AmazonBaseURL:   cfg.Retailers.Amazon.BaseURL,
		FlipkartBaseURL: cfg.Retailers.Flipkart.BaseURL,
	})

	a.Service = usecase.NewShoppingService(usecase.ShoppingDeps{
		Detector:         visionClient,
		Captioner:        visionClient,
		Recognizer:       visionClient,
		Fusion:           fusion,
		Aggregator:       aggregator,
		PriceSources:     priceSources,
		Details:          details,
		Cache:            resultCache,
		ProviderObserver: a.Recorder,
	}, usecase.ShoppingServiceConfig{
		TextMaxResults:     cfg.Search.TextMaxResults,
		ImageMaxResults:    cfg.Search.ImageMaxResults,
		ProviderTimeout:    cfg.Vision.Timeout,
		SearchCacheTTL:     cfg.Cache.SearchTTL,
		DefaultPriceSites:  cfg.Search.PriceSites,
		EnableDebugLogging: cfg.Logging.Level == "debug",
	})

	logging.Info().
		Strs("sources", aggregator.Sources()).
		Str("cache", cfg.Cache.Type).
		Dur("search_ttl", cfg.Cache.SearchTTL).
		Msg("shopping service ready")

	return a, nil
}

// Close releases browsers and cache connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) buildCache(ctx context.Context, cfg config.CacheConfig) domain.CacheRepository {
	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, redisKeyPrefix)
		if err == nil {
			a.closers = append(a.closers, redisCache.Close)
			logging.Info().Msg("using redis result cache")
			return redisCache
		}
		logging.Warn().Err(err).Msg("redis unavailable, falling back to in-memory cache")
	}
	return cache.NewMemoryCache(memoryCleanup)
}

// buildRetailers returns the enabled adapters in fixed order (Amazon, Flipkart,
// Google Shopping) and price lookups for the plain HTTP ones.
func (a *App) buildRetailers(cfg *config.Config) ([]domain.RetailerAdapter, []domain.PriceSource) {
	var adapters []domain.RetailerAdapter
	var priceSources []domain.PriceSource

	htmlRetailers := []struct {
		settings config.RetailerConfig
		build    func(baseURL string) retailer.AdapterConfig
	}{
		{cfg.Retailers.Amazon, retailer.AmazonConfig},
		{cfg.Retailers.Flipkart, retailer.FlipkartConfig},
	}

	for _, r := range htmlRetailers {
		if !r.settings.Enabled {
			continue
		}
		adapterCfg := r.build(r.settings.BaseURL)
		source := retailer.NewHTTPSource(adapterCfg.Key, a.httpSourceConfig(cfg, r.settings.Timeout))
		adapter := retailer.NewHTMLAdapter(adapterCfg, source)

		adapters = append(adapters, adapter)
		priceSources = append(priceSources, retailer.NewPriceLookup(adapter))
	}

	if google := cfg.Retailers.GoogleShopping; google.Enabled {
		rendered := retailer.NewRenderedSource(retailer.KeyGoogleShopping, retailer.RenderedSourceConfig{
			ControlURL: cfg.Browser.ControlURL,
			Timeout:    google.Timeout,
			Settle:     cfg.Browser.Settle,
		})
		a.closers = append(a.closers, rendered.Close)
		adapters = append(adapters, retailer.NewHTMLAdapter(retailer.GoogleShoppingConfig(google.BaseURL), rendered))
	}

	return adapters, priceSources
}

func (a *App) httpSourceConfig(cfg *config.Config, timeout time.Duration) retailer.HTTPSourceConfig {
	return retailer.HTTPSourceConfig{
		Timeout:           timeout,
		RequestsPerSecond: cfg.RateLimit.RetailerRPS,
		Burst:             defaultRetailerBurst,
		UserAgent:         retailer.DefaultUserAgent,
		BreakerFailures:   breakerFailures,
		BreakerCooldown:   breakerCooldown,
		OnBreakerChange:   a.Recorder.ObserveBreaker,
	}
}

func logVisionEndpoints(cfg config.VisionConfig) {
	endpoints := map[domain.SignalSource]string{
		domain.SourceObjectDetector:  cfg.DetectorURL,
		domain.SourceCaption:         cfg.CaptionURL,
		domain.SourceTextRecognition: cfg.OCRURL,
	}
	for source, url := range endpoints {
		if url == "" {
			logging.Warn().Str("provider", string(source)).Msg("provider URL not configured; its signals will be empty")
		}
	}
}
