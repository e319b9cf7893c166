package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flipscan/arbworker/internal/pricing"
)

// FieldRule is one step of an ordered extraction chain. Rules are tried in
// order and the first non-empty result wins. A rule either selects a node
// within the item chunk (Selector, optionally reading Attr instead of text)
// or, when Selector is empty, matches Pattern against the raw chunk markup.
type FieldRule struct {
	Selector string
	Attr     string
	Pattern  *regexp.Regexp
}

// ExtractorConfig is the per-variant rule set for one marketplace layout.
// New layout variants are added here without touching the engine.
type ExtractorConfig struct {
	Name      string
	Container *regexp.Regexp // marks the start of each per-item block
	BaseURL   string         // prefix for relative item links

	Link         []FieldRule
	LinkReject   []string // URL path segments marking non-item pages
	RequiredText []string // chunk must contain at least one of these markers

	Title       []FieldRule
	TitleStrip  []*regexp.Regexp // boilerplate removed from extracted titles
	TitleReject []string         // placeholder phrases rejecting the item (lowercase)

	Price    []FieldRule
	SoldDate []FieldRule
	Image    []FieldRule
}

// Item is one structured record extracted from raw markup.
type Item struct {
	ID        string
	Title     string
	PriceText string
	SoldDate  string
	URL       string
	ImageURL  string
}

var (
	commentPattern    = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ExtractItems converts raw markup into at most maxItems structured records,
// in document order. Target pages are controlled by a third party and their
// structure drifts, so malformed or incomplete item blocks are skipped
// rather than failing the whole batch.
func ExtractItems(markup string, cfg ExtractorConfig, maxItems int) []Item {
	var items []Item

	for _, raw := range splitChunks(markup, cfg.Container) {
		if len(items) >= maxItems {
			break
		}

		// Comments may contain decoy markup matching the same patterns.
		chunk := commentPattern.ReplaceAllString(raw, "")

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(chunk))
		if err != nil {
			continue
		}

		link := applyRules(doc, chunk, cfg.Link)
		if link == "" {
			continue
		}
		link = resolveLink(link, cfg.BaseURL)
		if rejectLink(link, cfg.LinkReject) {
			continue
		}

		if !containsAny(chunk, cfg.RequiredText) {
			continue
		}

		title := cleanTitle(applyRules(doc, chunk, cfg.Title), cfg.TitleStrip)
		if title == "" || matchesAny(strings.ToLower(title), cfg.TitleReject) {
			continue
		}

		priceText := applyRules(doc, chunk, cfg.Price)
		if !positivePrice(priceText) {
			continue
		}

		// Secondary fields are best-effort; either may be empty.
		soldDate := applyRules(doc, chunk, cfg.SoldDate)
		imageURL := stripQuery(applyRules(doc, chunk, cfg.Image))

		items = append(items, Item{
			ID:        NewID(link),
			Title:     title,
			PriceText: priceText,
			SoldDate:  soldDate,
			URL:       link,
			ImageURL:  imageURL,
		})
	}

	return items
}

// splitChunks splits the full markup into per-item blocks at each container
// boundary. The page preamble before the first boundary is discarded.
func splitChunks(markup string, container *regexp.Regexp) []string {
	starts := container.FindAllStringIndex(markup, -1)
	if len(starts) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(starts))
	for i, loc := range starts {
		end := len(markup)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		chunks = append(chunks, markup[loc[0]:end])
	}
	return chunks
}

// applyRules runs an ordered rule chain against the chunk; the first rule
// producing a non-empty value wins.
func applyRules(doc *goquery.Document, chunk string, rules []FieldRule) string {
	for _, rule := range rules {
		var value string

		if rule.Selector != "" {
			sel := doc.Find(rule.Selector).First()
			if sel.Length() == 0 {
				continue
			}
			if rule.Attr != "" {
				value, _ = sel.Attr(rule.Attr)
			} else {
				value = sel.Text()
			}
			if rule.Pattern != nil {
				value = firstMatch(rule.Pattern, value)
			}
		} else if rule.Pattern != nil {
			value = firstMatch(rule.Pattern, chunk)
		}

		value = collapseWhitespace(tagPattern.ReplaceAllString(value, " "))
		if value != "" {
			return value
		}
	}
	return ""
}

// firstMatch returns the first capture group of the pattern, or the whole
// match when the pattern has no groups.
func firstMatch(pattern *regexp.Regexp, s string) string {
	m := pattern.FindStringSubmatch(s)
	switch {
	case len(m) > 1:
		return m[1]
	case len(m) == 1:
		return m[0]
	default:
		return ""
	}
}

// resolveLink makes a link absolute against the base URL and strips query
// parameters to obtain the canonical item URL.
func resolveLink(link, baseURL string) string {
	link = strings.TrimSpace(link)
	switch {
	case strings.HasPrefix(link, "//"):
		link = "https:" + link
	case strings.HasPrefix(link, "/") && baseURL != "":
		link = baseURL + link
	}
	return stripQuery(link)
}

func stripQuery(link string) string {
	if i := strings.Index(link, "?"); i >= 0 {
		return link[:i]
	}
	return link
}

func rejectLink(link string, reject []string) bool {
	for _, segment := range reject {
		if strings.Contains(link, segment) {
			return true
		}
	}
	return false
}

// containsAny reports whether s contains at least one marker. An empty
// marker list imposes no requirement.
func containsAny(s string, markers []string) bool {
	return len(markers) == 0 || matchesAny(s, markers)
}

func matchesAny(s string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}

// positivePrice reports whether the raw price text parses to a positive
// value. Zero means unparseable, so zero-priced chunks are rejected.
func positivePrice(text string) bool {
	value, _ := pricing.ParseRaw(text)
	return value > 0
}

func cleanTitle(title string, strip []*regexp.Regexp) string {
	for _, pattern := range strip {
		title = pattern.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
