package retailer

import (
	"context"
	"fmt"

	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/logging"
)

// Placeholder titles for lookups that found nothing usable
const (
	noResultsTitle = "No results found"
	errorTitle     = "Error"
)

// PriceLookup reports the top result of one retailer as a single listing.
// It implements domain.PriceSource.
type PriceLookup struct {
	adapter *HTMLAdapter
}

// NewPriceLookup creates a price lookup over a search adapter
func NewPriceLookup(adapter *HTMLAdapter) *PriceLookup {
	return &PriceLookup{adapter: adapter}
}

// Key returns the source key the lookup is selected by
func (p *PriceLookup) Key() string {
	return p.adapter.Name()
}

// LookupPrice always returns exactly one listing. Failures are reported in
// the listing's Error field rather than returned.
func (p *PriceLookup) LookupPrice(ctx context.Context, query string) (listing domain.Listing) {
	defer func() {
		if r := recover(); r != nil {
			listing = domain.Listing{
				Title:    errorTitle,
				Retailer: p.adapter.Retailer(),
				Error:    fmt.Sprintf("lookup panic: %v", r),
			}
		}
	}()

	outcome := p.adapter.Search(ctx, query, 1)

	switch outcome.Status {
	case domain.OutcomeFailed:
		logging.Ctx(ctx).Warn().Err(outcome.Err).Str("retailer", p.Key()).Msg("price lookup failed")
		msg := "unknown error"
		if outcome.Err != nil {
			msg = outcome.Err.Error()
		}
		return domain.Listing{Title: errorTitle, Retailer: p.adapter.Retailer(), Error: msg}
	case domain.OutcomeEmpty:
		return domain.Listing{Title: noResultsTitle, Retailer: p.adapter.Retailer()}
	}

	return outcome.Listings[0]
}
