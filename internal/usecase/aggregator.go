package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
	"golang.org/x/sync/errgroup"
)

const defaultAdapterTimeout = 10 * time.Second

// SearchObserver receives per-source outcomes and dedup counts, e.g. for metrics
type SearchObserver interface {
	ObserveOutcome(outcome domain.SearchOutcome)
	ObserveDedup(before, after int)
}

// AggregatorConfig holds configuration for the aggregator
type AggregatorConfig struct {
	AdapterTimeout time.Duration
	DedupThreshold float64
	Observer       SearchObserver
}

// Aggregator fans a query out to every retailer adapter and merges the results
type Aggregator struct {
	adapters       []domain.RetailerAdapter
	adapterTimeout time.Duration
	dedupThreshold float64
	observer       SearchObserver
}

// NewAggregator creates an aggregator over adapters, in the given order.
// The order fixes the output order among non-duplicate listings.
func NewAggregator(adapters []domain.RetailerAdapter, config AggregatorConfig) *Aggregator {
	timeout := config.AdapterTimeout
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}

	threshold := config.DedupThreshold
	if threshold <= 0 {
		threshold = defaultDedupThreshold
	}

	return &Aggregator{
		adapters:       adapters,
		adapterTimeout: timeout,
		dedupThreshold: threshold,
		observer:       config.Observer,
	}
}

// Sources returns the configured adapter names in order
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.adapters))
	for i, ad := range a.adapters {
		names[i] = ad.Name()
	}
	return names
}

// SearchAllSources queries every adapter concurrently and returns the
// deduplicated union of their listings.
func (a *Aggregator) SearchAllSources(ctx context.Context, query domain.RetailerQuery) []domain.Listing {
	listings, _ := a.SearchWithOutcomes(ctx, query)
	return listings
}

// SearchWithOutcomes is SearchAllSources that also reports each adapter's outcome,
// in adapter order.
func (a *Aggregator) SearchWithOutcomes(
	ctx context.Context,
	query domain.RetailerQuery,
) ([]domain.Listing, []domain.SearchOutcome) {
	outcomes := make([]domain.SearchOutcome, len(a.adapters))

	// Adapters never fail the group; each slot is written by exactly one goroutine.
	var g errgroup.Group
	for i, adapter := range a.adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			outcomes[i] = a.runAdapter(ctx, adapter, query)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Listing
	for _, outcome := range outcomes {
		if a.observer != nil {
			a.observer.ObserveOutcome(outcome)
		}

		var event *zerolog.Event
		if outcome.Status == domain.OutcomeFailed {
			event = logging.Ctx(ctx).Warn().Err(outcome.Err)
		} else {
			event = logging.Ctx(ctx).Debug()
		}
		event.
			Str("retailer", outcome.Retailer).
			Str("query", outcome.Query.Text).
			Str("status", string(outcome.Status)).
			Int("count", len(outcome.Listings)).
			Dur("elapsed", outcome.Elapsed).
			Msg("retailer search finished")

		merged = append(merged, outcome.Listings...)
	}

	unique := DeduplicateListings(merged, a.dedupThreshold)
	if a.observer != nil {
		a.observer.ObserveDedup(len(merged), len(unique))
	}

	return unique, outcomes
}

// runAdapter bounds one adapter call by its own timeout. If the adapter does not
// honour its context, the result is abandoned when the budget runs out.
func (a *Aggregator) runAdapter(
	ctx context.Context,
	adapter domain.RetailerAdapter,
	query domain.RetailerQuery,
) domain.SearchOutcome {
	name := adapter.Name()
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
	defer cancel()

	// Buffered so an abandoned adapter can still finish and exit
	done := make(chan domain.SearchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- domain.SearchOutcome{
					Retailer: name,
					Status:   domain.OutcomeFailed,
					Err:      fmt.Errorf("%w: adapter panic: %v", domain.ErrSourceUnreachable, r),
				}
			}
		}()
		done <- adapter.Search(callCtx, query.Text, query.MaxResultsPerSource)
	}()

	var outcome domain.SearchOutcome
	select {
	case outcome = <-done:
	case <-callCtx.Done():
		outcome = domain.SearchOutcome{
			Retailer: name,
			Status:   domain.OutcomeFailed,
			Err:      fmt.Errorf("%w: %v", domain.ErrSourceUnreachable, callCtx.Err()),
		}
	}

	if outcome.Retailer == "" {
		outcome.Retailer = name
	}
	if outcome.Status == "" {
		outcome.Status = domain.OutcomeOK
		if len(outcome.Listings) == 0 {
			outcome.Status = domain.OutcomeEmpty
		}
	}
	if outcome.Status != domain.OutcomeOK {
		outcome.Listings = nil
	}
	outcome.Query = query
	outcome.Elapsed = time.Since(start)

	return outcome
}
