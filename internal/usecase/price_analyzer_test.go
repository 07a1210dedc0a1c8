package usecase

import (
	"testing"

	"github.com/shoplens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(retailer string, price float64) domain.Listing {
	return domain.Listing{Title: retailer + " item", Retailer: retailer, PriceNumeric: &price}
}

func TestAnalyzePrices(t *testing.T) {
	t.Run("nil below two priced listings", func(t *testing.T) {
		assert.Nil(t, AnalyzePrices(nil))
		assert.Nil(t, AnalyzePrices([]domain.Listing{priced("amazon", 100)}))
		assert.Nil(t, AnalyzePrices([]domain.Listing{
			priced("amazon", 100),
			{Title: "no price", Retailer: "flipkart"},
		}))
	})

	t.Run("finds best price and savings", func(t *testing.T) {
		got := AnalyzePrices([]domain.Listing{
			priced("amazon", 1299),
			{Title: "unpriced", Retailer: "google_shopping"},
			priced("flipkart", 1199),
			priced("google_shopping", 1499),
		})

		require.NotNil(t, got)
		assert.Equal(t, 1199.0, got.BestPrice)
		assert.Equal(t, "flipkart", got.BestRetailer)
		assert.Equal(t, domain.PriceRange{Min: 1199, Max: 1499}, got.PriceRange)
		assert.Equal(t, 300.0, got.Savings)
	})

	t.Run("first listing wins a tie", func(t *testing.T) {
		got := AnalyzePrices([]domain.Listing{
			priced("flipkart", 500),
			priced("amazon", 500),
		})

		require.NotNil(t, got)
		assert.Equal(t, "flipkart", got.BestRetailer)
		assert.Zero(t, got.Savings)
	})
}
