package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-stock-ledger/internal/model"
)

// Gateway is the catalog contract this package implements and decorates.
type Gateway interface {
	FetchSnapshot(ctx context.Context, resourceID, source string) (*model.CatalogSnapshot, error)
}

// Client fetches resource snapshots from the external catalog API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) FetchSnapshot(ctx context.Context, resourceID, source string) (*model.CatalogSnapshot, error) {
	endpoint := fmt.Sprintf("%s/resources/%s?source=%s",
		c.baseURL, url.PathEscape(resourceID), url.QueryEscape(source))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCatalogUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: resource %s", model.ErrCatalogNotFound, resourceID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: catalog returned status %d", model.ErrCatalogUnavailable, resp.StatusCode)
	}

	var snapshot model.CatalogSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot: %v", model.ErrCatalogUnavailable, err)
	}
	if snapshot.ResourceID == "" {
		snapshot.ResourceID = resourceID
	}
	return &snapshot, nil
}
