package retailer

// Source keys
const (
	KeyAmazon         = "amazon"
	KeyFlipkart       = "flipkart"
	KeyGoogleShopping = "google_shopping"
)

// Default base URLs
const (
	AmazonBaseURL         = "https://www.amazon.in"
	FlipkartBaseURL       = "https://www.flipkart.com"
	GoogleShoppingBaseURL = "https://www.google.com"
)

// AmazonConfig returns the Amazon India adapter definition
func AmazonConfig(baseURL string) AdapterConfig {
	if baseURL == "" {
		baseURL = AmazonBaseURL
	}
	return AdapterConfig{
		Key:        KeyAmazon,
		Retailer:   "Amazon India",
		BaseURL:    baseURL,
		SearchPath: "/s?k=%s",
		Containers: []string{`div[data-component-type="s-search-result"]`},
		Fields: FieldSet{
			Title: TextOf(
				"span.a-size-medium.a-color-base.a-text-normal",
				"span.a-size-base-plus.a-color-base.a-text-normal",
				"h2.a-size-mini span",
				"h2 span.a-color-base",
				`[data-cy="title-recipe-label"]`,
				"h2 a span",
			),
			Price: TextOf(
				"span.a-price > span.a-offscreen",
				"span.a-price-whole",
				".a-price-range .a-offscreen",
			),
			Image: FirstOf(Attr("img", "src"), Attr("img", "data-src")),
			Link: FirstOf(
				Attr("h2 a", "href"),
				Attr("a.a-link-normal", "href"),
				Attr(".s-link-style a", "href"),
			),
			Rating:  FirstWord(Text("span.a-icon-alt")),
			Reviews: Text("span.a-size-base.s-underline-text"),
		},
		FallbackTitle: "Amazon Product",
	}
}

// FlipkartConfig returns the Flipkart adapter definition. Flipkart rotates its
// class names often, so current and older selectors are both listed.
func FlipkartConfig(baseURL string) AdapterConfig {
	if baseURL == "" {
		baseURL = FlipkartBaseURL
	}
	return AdapterConfig{
		Key:        KeyFlipkart,
		Retailer:   "Flipkart",
		BaseURL:    baseURL,
		SearchPath: "/search?q=%s",
		Containers: []string{"div._1AtVbE", "div._13oc-S", "div.tUxRFH"},
		Fields: FieldSet{
			Title: TextOf("div._4rR01T", "a.s1Q9rs", "div.KzDlHZ", "div.yRaY8j.ZYYwLA"),
			Price: TextOf("div._30jeq3", "div._25b18c", "div.Nx9bqj._4b5DiR"),
			Image: FirstOf(Attr("img._396cs4", "src"), Attr("img.DByuf4", "src")),
			Link: FirstOf(
				Attr("a._1fQZEK", "href"),
				Attr("a.s1Q9rs", "href"),
				Attr("a.CGtC98", "href"),
			),
			Rating: TextOf("div._3LWZlK", "div.XQDdHH"),
		},
		RequireImage: true,
	}
}

// GoogleShoppingConfig returns the Google Shopping adapter definition. Its
// result page is script-rendered and must be read through a RenderedSource.
func GoogleShoppingConfig(baseURL string) AdapterConfig {
	if baseURL == "" {
		baseURL = GoogleShoppingBaseURL
	}
	return AdapterConfig{
		Key:        KeyGoogleShopping,
		Retailer:   "Google Shopping",
		BaseURL:    baseURL,
		SearchPath: "/search?q=%s&tbm=shop",
		Containers: []string{".sh-dgr__content"},
		Fields: FieldSet{
			Title: Text(".Xjkr3b"),
			Price: Text(".a8Pemb"),
			Image: Attr(".ArOc1c img", "src"),
			Link:  Attr("a", "href"),
		},
		RequireImage: true,
	}
}
