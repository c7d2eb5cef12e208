// Package search provides the Elasticsearch projection of the car catalog.
//
// Index lifecycle:
//   - ConfigureIndex declares the mapping and is safe to run on every start.
//   - UpsertRecord/DeleteRecord follow individual catalog writes.
//   - ReplaceAll rebuilds the whole index from the document store.
//
// The document store remains the source of truth; the index is a
// read-optimised projection that may briefly lag behind it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"car-rental-catalog/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// DefaultIndex is used when no index name is configured.
const DefaultIndex = "cars"

type Config struct {
	URL      string
	Username string
	Password string
	APIKey   string
	Index    string
}

// Client wraps the Elasticsearch client with catalog-level operations.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// New creates an Elasticsearch client pointed at cfg.URL.
func New(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	return &Client{es: es, index: index}, nil
}

// Index returns the name of the managed index.
func (c *Client) Index() string { return c.index }

// Ping checks that the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: ping [%s]", res.Status())
	}
	return nil
}

// ConfigureIndex creates the index with its settings and mapping, or
// re-applies the mapping when the index already exists. An index that was
// auto-created by a document write carries a dynamic mapping that cannot
// be changed in place; ReplaceAll recreates it.
func (c *Client) ConfigureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: index exists request: %w", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusNotFound:
		return c.createIndex(ctx)

	case http.StatusOK:
		body, err := json.Marshal(indexMappings)
		if err != nil {
			return err
		}
		res, err := c.es.Indices.PutMapping([]string{c.index}, bytes.NewReader(body),
			c.es.Indices.PutMapping.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("search: put mapping request: %w", err)
		}
		defer res.Body.Close()
		return responseError("put mapping", res.StatusCode, res.Status(), res.Body)

	default:
		return fmt.Errorf("search: index exists [%s]", res.Status())
	}
}

// UpsertRecord writes one record. The car id is the document id, so
// repeating the call for the same car does not create duplicates.
func (c *Client) UpsertRecord(ctx context.Context, rec models.SearchRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(body),
		c.es.Index.WithDocumentID(rec.ID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index request: %w", err)
	}
	defer res.Body.Close()
	return responseError("index", res.StatusCode, res.Status(), res.Body)
}

// DeleteRecord removes one record. A record that is already gone counts as
// success.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	res, err := c.es.Delete(c.index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError("delete", res.StatusCode, res.Status(), res.Body)
}

// ReplaceAll drops the index, recreates it with the declared settings and
// mapping, and loads recs in a single bulk request, so the index ends up
// holding exactly recs under the current mapping.
func (c *Client) ReplaceAll(ctx context.Context, recs []models.SearchRecord) error {
	if err := c.dropIndex(ctx); err != nil {
		return err
	}
	if err := c.createIndex(ctx); err != nil {
		return err
	}

	if len(recs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range recs {
		if err := enc.Encode(map[string]any{"index": map[string]string{"_id": rec.ID}}); err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}

	res, err := c.es.Bulk(&buf,
		c.es.Bulk.WithIndex(c.index),
		c.es.Bulk.WithRefresh("true"),
		c.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: bulk request: %w", err)
	}
	defer res.Body.Close()
	if err := responseError("bulk", res.StatusCode, res.Status(), res.Body); err != nil {
		return err
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("search: decode bulk response: %w", err)
	}
	if out.Errors {
		for _, item := range out.Items {
			for _, r := range item {
				if r.Error != nil {
					return fmt.Errorf("search: bulk item %s: %s: %s", r.ID, r.Error.Type, r.Error.Reason)
				}
			}
		}
		return errors.New("search: bulk request reported errors")
	}
	return nil
}

func (c *Client) createIndex(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{
		"settings": indexSettings,
		"mappings": indexMappings,
	})
	if err != nil {
		return err
	}
	res, err := c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: create index request: %w", err)
	}
	defer res.Body.Close()
	return responseError("create index", res.StatusCode, res.Status(), res.Body)
}

// dropIndex deletes the index. A missing index counts as success.
func (c *Client) dropIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete index request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError("delete index", res.StatusCode, res.Status(), res.Body)
}

// Count returns the number of records in the index.
func (c *Client) Count(ctx context.Context) (int64, error) {
	res, err := c.es.Count(
		c.es.Count.WithIndex(c.index),
		c.es.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("search: count request: %w", err)
	}
	defer res.Body.Close()
	if err := responseError("count", res.StatusCode, res.Status(), res.Body); err != nil {
		return 0, err
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("search: decode count response: %w", err)
	}
	return out.Count, nil
}

// Search runs a full-text query over the searchable fields and returns at
// most limit records, best match first.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]models.SearchRecord, error) {
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  term,
				"fields": searchableFields,
				"type":   "best_fields",
			},
		},
		"sort": rankingSort,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query request: %w", err)
	}
	defer res.Body.Close()
	if err := responseError("query", res.StatusCode, res.Status(), res.Body); err != nil {
		return nil, err
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: decode query response: %w", err)
	}
	recs := make([]models.SearchRecord, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		recs = append(recs, h.Source)
	}
	return recs, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string              `json:"_id"`
			Source models.SearchRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID    string `json:"_id"`
		Error *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func responseError(op string, code int, status string, body io.Reader) error {
	if code < 300 {
		return nil
	}
	msg, _ := io.ReadAll(body)
	return fmt.Errorf("search: %s error [%s]: %s", op, status, msg)
}
