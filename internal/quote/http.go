package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const maxQuoteBody = 64 << 10

// HTTPProvider fetches a quote from a web API. When path is set the body is
// read as JSON and the quote is taken from that gjson path (for example
// "0.q"); otherwise the whole body is the quote.
type HTTPProvider struct {
	client *http.Client
	url    string
	path   string
}

func NewHTTPProvider(client *http.Client, rawURL, path string) (*HTTPProvider, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("quote: invalid url %q", rawURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{client: client, url: rawURL, path: path}, nil
}

func (p *HTTPProvider) Quote(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json, text/plain")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("quote: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteBody))
	if err != nil {
		return "", err
	}

	if p.path == "" {
		return strings.TrimSpace(string(body)), nil
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("quote: response is not JSON")
	}
	res := gjson.GetBytes(body, p.path)
	if !res.Exists() {
		return "", fmt.Errorf("quote: %q not found in response", p.path)
	}
	return res.String(), nil
}
