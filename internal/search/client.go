package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	esv7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/entigraph/entigest/internal/model"
)

// Client manages the lookup index on an Elasticsearch 7 cluster.
type Client struct {
	es     *esv7.Client
	index  string
	logger *slog.Logger
}

// NewClient connects to the cluster named by cfg.
func NewClient(cfg model.SearchConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	es, err := esv7.NewClient(esv7.Config{Addresses: cfg.Addresses})
	if err != nil {
		return nil, fmt.Errorf("connect search cluster: %w", err)
	}
	return &Client{es: es, index: cfg.Index, logger: logger}, nil
}

// EnsureIndex creates the lookup index with its mapping. Running it against
// an existing index is a no-op: the already-exists answer is success.
func (c *Client) EnsureIndex(ctx context.Context, shards, replicas int) error {
	res, err := c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithBody(bytes.NewReader(Mapping(shards, replicas))),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", c.index, err)
	}
	defer res.Body.Close()

	if !res.IsError() {
		c.logger.Info("search index created", "index", c.index)
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode == 400 && strings.Contains(string(body), "resource_already_exists_exception") {
		c.logger.Debug("search index already exists", "index", c.index)
		return nil
	}
	return fmt.Errorf("create index %s: status %d: %s", c.index, res.StatusCode, body)
}

// IndexItem pushes every surface form of one item record.
func (c *Client) IndexItem(ctx context.Context, item *model.ItemRecord) error {
	for i, doc := range Documents(item) {
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document for %s: %w", item.Entity, err)
		}
		req := esapi.IndexRequest{
			Index:      c.index,
			DocumentID: fmt.Sprintf("%s-%d", item.Entity, i),
			Body:       bytes.NewReader(body),
		}
		res, err := req.Do(ctx, c.es)
		if err != nil {
			return fmt.Errorf("index %s: %w", item.Entity, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index %s: status %d", item.Entity, res.StatusCode)
		}
	}
	return nil
}
