package usecase

import "github.com/shoplens/backend/internal/domain"

// AnalyzePrices computes the best-deal verdict over listings with numeric prices.
// Returns nil when fewer than two listings carry a price. Ties on the minimum
// go to the first listing in input order.
func AnalyzePrices(listings []domain.Listing) *domain.PriceAnalysis {
	var priced []domain.Listing
	for _, l := range listings {
		if l.HasPrice() {
			priced = append(priced, l)
		}
	}

	if len(priced) < 2 {
		return nil
	}

	minPrice := *priced[0].PriceNumeric
	maxPrice := *priced[0].PriceNumeric
	bestRetailer := priced[0].Retailer

	for _, l := range priced[1:] {
		price := *l.PriceNumeric
		if price < minPrice {
			minPrice = price
			bestRetailer = l.Retailer
		}
		if price > maxPrice {
			maxPrice = price
		}
	}

	return &domain.PriceAnalysis{
		BestPrice:    minPrice,
		BestRetailer: bestRetailer,
		PriceRange:   domain.PriceRange{Min: minPrice, Max: maxPrice},
		Savings:      maxPrice - minPrice,
	}
}
