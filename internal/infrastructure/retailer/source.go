package retailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent with every retailer request
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxBodyBytes = 8 << 20

// DocumentSource loads a page and parses it for selector extraction
type DocumentSource interface {
	Document(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// BreakerStateFunc is notified when a source's circuit breaker changes state
type BreakerStateFunc func(source string, state string)

// HTTPSourceConfig holds configuration for an HTTP document source
type HTTPSourceConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	BreakerFailures   uint32        // Consecutive failures before the breaker opens
	BreakerCooldown   time.Duration // Time in open state before a trial request
	OnBreakerChange   BreakerStateFunc
}

// HTTPSource fetches retailer pages over plain HTTP
type HTTPSource struct {
	name        string
	httpClient  *http.Client
	userAgent   string
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPSource creates a rate limited, circuit-broken HTTP source for one retailer
func NewHTTPSource(name string, cfg HTTPSourceConfig) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	onChange := cfg.OnBreakerChange
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("retailer", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("retailer circuit breaker state changed")
			if onChange != nil {
				onChange(name, to.String())
			}
		},
		// Caller cancellation says nothing about the retailer's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &HTTPSource{
		name: name,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker:     breaker,
	}
}

// Document fetches pageURL and parses it
func (s *HTTPSource) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := s.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to parse page: %v", domain.ErrSourceUnreachable, s.name, err)
	}
	return doc, nil
}

// Fetch returns the raw body of pageURL. Requests are never retried.
func (s *HTTPSource) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrRateLimited, s.name, err)
	}

	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.doRequest(ctx, pageURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCircuitOpen, s.name)
		}
		return nil, err
	}
	return body, nil
}

// doRequest executes an HTTP GET request with browser-like headers
func (s *HTTPSource) doRequest(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to create request: %v", domain.ErrSourceUnreachable, s.name, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Keep the transport error in the chain so the breaker can tell caller
		// cancellation apart from a failing retailer.
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnreachable, s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrSourceUnreachable, s.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read body: %v", domain.ErrSourceUnreachable, s.name, err)
	}
	return body, nil
}

// BreakerState reports the current circuit breaker state, e.g. "closed"
func (s *HTTPSource) BreakerState() string {
	return s.breaker.State().String()
}
