package sparql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/entigraph/entigest/internal/cache"
	"github.com/entigraph/entigest/internal/model"
	"github.com/entigraph/entigest/internal/util"
)

// ErrRateLimited signals that the endpoint refused the request for load
// reasons. Callers retry only on this error; everything else is terminal for
// the query.
var ErrRateLimited = errors.New("sparql: rate limited")

const maxResponseBytes = 256 * 1024 * 1024

// Client issues SELECT queries against a SPARQL endpoint. Requests pass
// through a client-side rate limiter before they leave the process, and
// responses may be served from a layered cache keyed by query text.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewClient builds a client from configuration. responses is optional; nil
// disables caching.
func NewClient(cfg model.SPARQLConfig, responses cache.Cache) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		cache:    responses,
		cacheTTL: 24 * time.Hour,
	}
}

// Binding is one row of a SELECT result, projected down to the two columns
// every query here uses: an identifier and an optional label.
type Binding struct {
	ID    string
	Label string
}

// resultEnvelope is the SPARQL 1.1 JSON results format, reduced to the
// fields we read.
type resultEnvelope struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Select runs a SELECT query and returns its bindings. The first projected
// variable is treated as the identifier column, idVar; labelVar may be empty.
func (c *Client) Select(ctx context.Context, query, idVar, labelVar string) ([]Binding, error) {
	body, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	var envelope resultEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	bindings := make([]Binding, 0, len(envelope.Results.Bindings))
	for _, row := range envelope.Results.Bindings {
		id, ok := row[idVar]
		if !ok {
			continue
		}
		b := Binding{ID: trimEntityIRI(id.Value)}
		if labelVar != "" {
			if label, ok := row[labelVar]; ok {
				b.Label = label.Value
			}
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// fetch returns the raw response body for a query, consulting the cache
// first. Rate-limit refusals surface as ErrRateLimited and are never cached.
func (c *Client) fetch(ctx context.Context, query string) ([]byte, error) {
	key := cache.Key(query)
	if c.cache != nil {
		if body, found := c.cache.Get(key); found {
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if c.cache != nil {
		_ = c.cache.Set(key, body, c.cacheTTL)
	}
	return body, nil
}

// trimEntityIRI reduces a full entity IRI to its local identifier. Values
// already in local form pass through unchanged.
func trimEntityIRI(value string) string {
	if idx := strings.LastIndex(value, "/"); idx >= 0 {
		return value[idx+1:]
	}
	return value
}
