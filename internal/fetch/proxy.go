package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Options configure one outbound retrieval through the proxy channel. They
// vary by target site and are always supplied by the caller.
type Options struct {
	RenderJS     bool
	WaitMS       int
	PremiumProxy bool
	StealthProxy bool
}

// StatusError reports a non-success response from the proxy channel.
type StatusError struct {
	Status int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Status)
}

// Client issues a single HTML retrieval. Implementations return the raw
// response body decoded to UTF-8.
type Client interface {
	Fetch(ctx context.Context, targetURL string, opts Options) ([]byte, error)
}

// ProxyClient retrieves pages through a ScrapingBee-style HTML API. Requests
// are paced client-side because the channel is rate-sensitive.
type ProxyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewProxyClient creates a proxy client. ratePerMin bounds outbound requests
// per minute; zero disables pacing.
func NewProxyClient(apiKey, baseURL string, ratePerMin int) *ProxyClient {
	var limiter *rate.Limiter
	if ratePerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMin)), 1)
	}
	return &ProxyClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		// JS rendering on the proxy side can take a while.
		client:  &http.Client{Timeout: 90 * time.Second},
		limiter: limiter,
	}
}

// Fetch retrieves one page through the proxy and returns its body as UTF-8.
func (c *ProxyClient) Fetch(ctx context.Context, targetURL string, opts Options) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("url", targetURL)
	q.Set("render_js", strconv.FormatBool(opts.RenderJS))
	if opts.WaitMS > 0 {
		q.Set("wait", strconv.Itoa(opts.WaitMS))
	}
	if opts.PremiumProxy {
		q.Set("premium_proxy", "true")
	}
	if opts.StealthProxy {
		q.Set("stealth_proxy", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return toUTF8(body, resp.Header.Get("Content-Type"))
}

// toUTF8 converts the response body to UTF-8 based on the declared and
// sniffed encoding.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return buf.Bytes(), nil
}
