package scraper

import "regexp"

// DepopExtractor returns the extraction rules for Depop search result pages.
// Depop renders product cards as anchors on /products/ paths; titles live in
// image alt text and prices appear as bare currency-symbol amounts near the
// anchor.
func DepopExtractor() ExtractorConfig {
	return ExtractorConfig{
		Name:      "depop",
		Container: regexp.MustCompile(`(?i)<a[^>]*href="/products/`),
		BaseURL:   "https://www.depop.com",
		Link: []FieldRule{
			{Pattern: regexp.MustCompile(`(?i)href="(/products/[^"]+)"`)},
		},
		Title: []FieldRule{
			{Pattern: regexp.MustCompile(`(?i)alt="([^"]+)"`)},
			{Pattern: regexp.MustCompile(`(?i)title="([^"]+)"`)},
		},
		Price: []FieldRule{
			{Pattern: regexp.MustCompile(`£[\d,.]+`)},
			{Pattern: regexp.MustCompile(`\$[\d,.]+`)},
			{Pattern: regexp.MustCompile(`€[\d,.]+`)},
		},
		Image: []FieldRule{
			{Pattern: regexp.MustCompile(`(?i)src="(https?://[^"]+\.(?:jpg|jpeg|png|webp)[^"]*)"`)},
		},
	}
}

// EbaySoldExtractor returns the extraction rules for eBay sold/completed
// search result pages. The current SRP wraps each listing in an
// <li class="s-card ..."> card and uses unquoted attribute values on several
// inner elements, so every field carries both selector and raw-pattern
// fallbacks. Promotional "Shop on eBay" cards share the container class and
// are filtered by the sold-item marker and the title placeholder check.
func EbaySoldExtractor() ExtractorConfig {
	return ExtractorConfig{
		Name:      "ebay",
		Container: regexp.MustCompile(`(?i)<li[^>]*class="[^"]*s-card[^"]*"`),
		Link: []FieldRule{
			{Pattern: regexp.MustCompile(`(?i)class=s-card__link[^>]+href=(https://[^\s>'"]+)`)},
			{Pattern: regexp.MustCompile(`(?i)href=(https://[^\s>'"]+)[^>]*class=s-card__link`)},
			{Pattern: regexp.MustCompile(`(?i)class="[^"]*s-card__link[^"]*"[^>]+href="([^"]+)"`)},
			{Pattern: regexp.MustCompile(`(?i)href="([^"]+)"[^>]*class="[^"]*s-card__link[^"]*"`)},
		},
		// Browse and search index pages share the card markup but are not items.
		LinkReject:   []string{"/b/", "/sch/"},
		RequiredText: []string{`aria-label="Sold Item"`, "Sold Item"},
		Title: []FieldRule{
			{Selector: "div.s-card__title"},
			{Pattern: regexp.MustCompile(`(?is)<div[^>]*class=s-card__title[^>]*>(.*?)</div>`)},
		},
		TitleStrip: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^New\s+Listing\s*`),
			regexp.MustCompile(`(?i)Opens in a new window or tab.*`),
		},
		TitleReject: []string{"shop on ebay"},
		Price: []FieldRule{
			{Selector: "span.s-card__price"},
			{Pattern: regexp.MustCompile(`(?is)<span[^>]*class="[^"]*s-card__price[^"]*"[^>]*>(.*?)</span>`)},
		},
		SoldDate: []FieldRule{
			{Selector: `span[aria-label="Sold Item"]`},
			{Pattern: regexp.MustCompile(`(?is)<span[^>]*aria-label="Sold Item"[^>]*>(.*?)</span>`)},
		},
		Image: []FieldRule{
			{Selector: "img.s-card__image", Attr: "src"},
			{Pattern: regexp.MustCompile(`(?i)class=s-card__image[^>]+src=(https?://[^\s>'"]+)`)},
			{Pattern: regexp.MustCompile(`(?i)class="[^"]*s-card__image[^"]*"[^>]+src="([^"]+)"`)},
			{Pattern: regexp.MustCompile(`(?i)src="([^"]+)"[^>]*class="[^"]*s-card__image[^"]*"`)},
			// Lazy-loaded images park the URL in data-defer-load.
			{Selector: "img", Attr: "data-defer-load"},
			{Pattern: regexp.MustCompile(`(?i)data-defer-load=(https?://[^\s>'"]+)`)},
		},
	}
}
