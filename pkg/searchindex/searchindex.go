// Package searchindex pushes embedding documents to a hosted search index
// that serves vector queries outside this tool.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/vector"
)

const (
	// DefaultAPIVersion is the index API version used when none is configured.
	DefaultAPIVersion = "2023-07-01-Preview"

	// ActionUpload inserts or replaces a document.
	ActionUpload = "upload"
)

var (
	// ErrIndex is returned when the index rejects a document.
	ErrIndex = errors.New("search index request failed")

	// ErrDimension is returned when an embedding does not match the index
	// vector dimension.
	ErrDimension = errors.New("embedding does not match index dimension")
)

// Document is a search index document.
type Document struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	ImageType       string    `json:"imagetype"`
	ImageEmbeddings []float64 `json:"imageEmbeddings"`
	Action          string    `json:"@search.action"`
}

// NewDocument builds an upload document for rec. The record label is the
// image type.
func NewDocument(rec vector.Record) Document {
	return Document{
		ID:              rec.ID,
		Filename:        rec.Source,
		ImageType:       rec.Label,
		ImageEmbeddings: rec.Vector,
		Action:          ActionUpload,
	}
}

type batch struct {
	Value []Document `json:"value"`
}

type batchResult struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
		StatusCode   int    `json:"statusCode"`
	} `json:"value"`
}

// Config holds configuration for the search index client.
type Config struct {
	ServiceName string
	IndexName   string
	APIKey      string

	// APIVersion defaults to DefaultAPIVersion if empty.
	APIVersion string

	// Dimension is the index vector dimension. Zero disables the check.
	Dimension int

	// BaseURL overrides "https://{ServiceName}.search.windows.net".
	BaseURL string
}

// Client uploads documents to one index.
type Client struct {
	url        string
	apiKey     string
	dimension  int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new search index client.
func NewClient(c Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.IndexName == "" {
		return nil, fmt.Errorf("search index name is required")
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("search index api key is required")
	}

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		if c.ServiceName == "" {
			return nil, fmt.Errorf("search service name is required")
		}
		base = fmt.Sprintf("https://%s.search.windows.net", c.ServiceName)
	}

	apiVersion := c.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	u := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s",
		base, url.PathEscape(c.IndexName), url.QueryEscape(apiVersion))

	return &Client{
		url:       u,
		apiKey:    c.APIKey,
		dimension: c.Dimension,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}, nil
}

// URL returns the document indexing endpoint.
func (c *Client) URL() string {
	return c.url
}

// Upload indexes a single document.
func (c *Client) Upload(ctx context.Context, doc Document) error {
	if c.dimension > 0 && len(doc.ImageEmbeddings) != c.dimension {
		return fmt.Errorf("%w: document %s has %d values, index expects %d",
			ErrDimension, doc.ID, len(doc.ImageEmbeddings), c.dimension)
	}
	if doc.Action == "" {
		doc.Action = ActionUpload
	}

	body, err := json.Marshal(batch{Value: []Document{doc}})
	if err != nil {
		return fmt.Errorf("marshaling document %s: %w", doc.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrIndex, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending request: %v", ErrIndex, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: index returned status %d: %s", ErrIndex, resp.StatusCode, string(respBody))
	}

	// A 207 carries per-document outcomes.
	var result batchResult
	if len(respBody) > 0 && json.Unmarshal(respBody, &result) == nil {
		for _, r := range result.Value {
			if !r.Status {
				return fmt.Errorf("%w: document %s: %s (status %d)", ErrIndex, r.Key, r.ErrorMessage, r.StatusCode)
			}
		}
	}

	c.logger.Debug("indexed document",
		zap.String("id", doc.ID),
		zap.String("filename", doc.Filename),
	)

	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
