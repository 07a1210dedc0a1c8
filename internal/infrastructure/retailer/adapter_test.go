package retailer

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jarcoal/httpmock"
	"github.com/shoplens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amazonResultsPage = `<html><body>
<div data-component-type="s-search-result">
  <h2><a href="/Sony-WH-1000XM4/dp/B0863TXGM3"><span class="a-size-medium a-color-base a-text-normal">Sony WH-1000XM4 Wireless Headphones</span></a></h2>
  <img src="https://m.media-amazon.com/images/I/sony.jpg">
  <span class="a-price"><span class="a-offscreen">₹19,990</span></span>
  <span class="a-icon-alt">4.5 out of 5 stars</span>
  <span class="a-size-base s-underline-text">12,345</span>
</div>
<div data-component-type="s-search-result">
  <h2><a href="/boAt/dp/B07PR1CL3S"><span class="a-size-base-plus a-color-base a-text-normal">boAt Rockerz 450</span></a></h2>
  <img data-src="https://m.media-amazon.com/images/I/boat.jpg">
  <span class="a-price-whole">1,299.</span>
</div>
<div data-component-type="s-search-result">
  <img src="https://m.media-amazon.com/images/I/unknown.jpg">
</div>
<div data-component-type="s-search-result">
  <p>sponsored placeholder</p>
</div>
</body></html>`

const flipkartResultsPage = `<html><body>
<div class="_1AtVbE">
  <a class="_1fQZEK" href="/apple-iphone-15/p/itm123"><div class="_4rR01T">APPLE iPhone 15 (Black, 128 GB)</div></a>
  <img class="_396cs4" src="https://rukminim2.flixcart.com/iphone.jpeg">
  <div class="_30jeq3">₹69,999</div>
  <div class="_3LWZlK">4.6</div>
</div>
<div class="_1AtVbE">
  <div class="_4rR01T">Title without image</div>
</div>
</body></html>`

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestSource(name string) *HTTPSource {
	return NewHTTPSource(name, HTTPSourceConfig{RequestsPerSecond: 1000, Burst: 100})
}

func TestHTMLAdapter_AmazonSearch(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, "https://www.amazon.in/s",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "wireless headphones", req.URL.Query().Get("k"))
			assert.Equal(t, DefaultUserAgent, req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(http.StatusOK, amazonResultsPage), nil
		})

	adapter := NewHTMLAdapter(AmazonConfig(""), newTestSource(KeyAmazon))
	outcome := adapter.Search(context.Background(), "wireless headphones", 5)

	require.Equal(t, domain.OutcomeOK, outcome.Status)
	require.Len(t, outcome.Listings, 3)

	first := outcome.Listings[0]
	assert.Equal(t, "Sony WH-1000XM4 Wireless Headphones", first.Title)
	assert.Equal(t, "₹19,990", first.PriceRaw)
	require.NotNil(t, first.PriceNumeric)
	assert.Equal(t, 19990.0, *first.PriceNumeric)
	assert.Equal(t, "₹", first.Currency)
	assert.Equal(t, "https://www.amazon.in/Sony-WH-1000XM4/dp/B0863TXGM3", first.ProductLink)
	assert.Equal(t, "4.5", first.Rating)
	assert.Equal(t, "12,345", first.ReviewCount)
	assert.Equal(t, "Amazon India", first.Retailer)

	// Second title selector and data-src image fallback
	second := outcome.Listings[1]
	assert.Equal(t, "boAt Rockerz 450", second.Title)
	assert.Equal(t, "https://m.media-amazon.com/images/I/boat.jpg", second.ImageURL)
	require.NotNil(t, second.PriceNumeric)
	assert.Equal(t, 1299.0, *second.PriceNumeric)

	// Image-only result takes the fallback title
	assert.Equal(t, "Amazon Product", outcome.Listings[2].Title)
	assert.Nil(t, outcome.Listings[2].PriceNumeric)
}

func TestHTMLAdapter_MaxResults(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://www.amazon.in/s",
		httpmock.NewStringResponder(http.StatusOK, amazonResultsPage))

	adapter := NewHTMLAdapter(AmazonConfig(""), newTestSource(KeyAmazon))

	outcome := adapter.Search(context.Background(), "headphones", 1)
	assert.Len(t, outcome.Listings, 1)

	outcome = adapter.Search(context.Background(), "headphones", 0)
	assert.Equal(t, domain.OutcomeEmpty, outcome.Status)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestHTMLAdapter_FlipkartRequiresImage(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://www.flipkart.com/search",
		httpmock.NewStringResponder(http.StatusOK, flipkartResultsPage))

	adapter := NewHTMLAdapter(FlipkartConfig(""), newTestSource(KeyFlipkart))
	outcome := adapter.Search(context.Background(), "iphone 15", 3)

	require.Len(t, outcome.Listings, 1)
	l := outcome.Listings[0]
	assert.Equal(t, "APPLE iPhone 15 (Black, 128 GB)", l.Title)
	assert.Equal(t, "https://www.flipkart.com/apple-iphone-15/p/itm123", l.ProductLink)
	assert.Equal(t, "4.6", l.Rating)
	assert.Equal(t, "Flipkart", l.Retailer)
	require.NotNil(t, l.PriceNumeric)
	assert.Equal(t, 69999.0, *l.PriceNumeric)
}

func TestHTMLAdapter_Failures(t *testing.T) {
	testCases := []struct {
		name      string
		responder httpmock.Responder
		status    domain.OutcomeStatus
	}{
		{
			name:      "server error",
			responder: httpmock.NewStringResponder(http.StatusServiceUnavailable, "busy"),
			status:    domain.OutcomeFailed,
		},
		{
			name:      "transport error",
			responder: httpmock.NewErrorResponder(assert.AnError),
			status:    domain.OutcomeFailed,
		},
		{
			name:      "no containers",
			responder: httpmock.NewStringResponder(http.StatusOK, "<html><body>captcha</body></html>"),
			status:    domain.OutcomeEmpty,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupHTTPMock(t)
			httpmock.RegisterResponder(http.MethodGet, "https://www.amazon.in/s", tc.responder)

			adapter := NewHTMLAdapter(AmazonConfig(""), newTestSource(KeyAmazon))
			outcome := adapter.Search(context.Background(), "laptop", 3)

			assert.Equal(t, tc.status, outcome.Status)
			assert.Nil(t, outcome.Listings)
			if tc.status == domain.OutcomeFailed {
				assert.ErrorIs(t, outcome.Err, domain.ErrSourceUnreachable)
			}
		})
	}
}

func TestHTMLAdapter_SearchURL(t *testing.T) {
	adapter := NewHTMLAdapter(GoogleShoppingConfig("https://shopping.example.com/"), nil)
	assert.Equal(t,
		"https://shopping.example.com/search?q=nike+shoes+%26+socks&tbm=shop",
		adapter.SearchURL("nike shoes & socks"))
	assert.Equal(t, KeyGoogleShopping, adapter.Name())
}

func TestHTMLAdapter_GoogleShoppingExtract(t *testing.T) {
	page := `<div class="sh-dgr__content">
	  <a href="https://store.example.com/p/1"><h3 class="Xjkr3b">Nike Air Zoom</h3></a>
	  <span class="a8Pemb">₹8,295.00</span>
	  <div class="ArOc1c"><img src="https://img.example.com/nike.jpg"></div>
	</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	adapter := NewHTMLAdapter(GoogleShoppingConfig(""), nil)
	listings := adapter.Extract(doc.Selection, 2)

	require.Len(t, listings, 1)
	assert.Equal(t, "Nike Air Zoom", listings[0].Title)
	assert.Equal(t, "https://store.example.com/p/1", listings[0].ProductLink)
	require.NotNil(t, listings[0].PriceNumeric)
	assert.Equal(t, 8295.0, *listings[0].PriceNumeric)
}

func TestHTTPSource_CircuitBreaker(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://www.amazon.in/s",
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	var states []string
	source := NewHTTPSource(KeyAmazon, HTTPSourceConfig{
		RequestsPerSecond: 1000,
		Burst:             100,
		BreakerFailures:   2,
		OnBreakerChange: func(_ string, state string) {
			states = append(states, state)
		},
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := source.Fetch(ctx, "https://www.amazon.in/s?k=tv")
		assert.ErrorIs(t, err, domain.ErrSourceUnreachable)
	}

	_, err := source.Fetch(ctx, "https://www.amazon.in/s?k=tv")
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
	assert.Equal(t, "open", source.BreakerState())
	assert.Equal(t, []string{"open"}, states)
}

func TestHTTPSource_CancelledContext(t *testing.T) {
	source := newTestSource(KeyAmazon)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Fetch(ctx, "https://www.amazon.in/s?k=tv")
	assert.Error(t, err)
	assert.Equal(t, "closed", source.BreakerState())
}

func TestHTTPSource_CallerCancellationKeepsBreakerClosed(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://www.amazon.in/s",
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	var states []string
	source := NewHTTPSource(KeyAmazon, HTTPSourceConfig{
		RequestsPerSecond: 1000,
		Burst:             100,
		BreakerFailures:   2,
		OnBreakerChange: func(_ string, state string) {
			states = append(states, state)
		},
	})

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(20*time.Millisecond, cancel)

		_, err := source.Fetch(ctx, "https://www.amazon.in/s?k=tv")
		timer.Stop()
		cancel()

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, domain.ErrSourceUnreachable)
	}

	assert.Equal(t, "closed", source.BreakerState())
	assert.Empty(t, states)

	httpmock.RegisterResponder(http.MethodGet, "https://www.amazon.in/s",
		httpmock.NewStringResponder(http.StatusOK, amazonResultsPage))

	body, err := source.Fetch(context.Background(), "https://www.amazon.in/s?k=tv")
	require.NoError(t, err)
	assert.Contains(t, string(body), "Sony WH-1000XM4")
}
