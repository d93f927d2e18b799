package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPGateway checks cross-project transfer exceptions against the
// approvals API.
type HTTPGateway struct {
	baseURL string
	http    *http.Client
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) IsApproved(ctx context.Context, exceptionID uuid.UUID) (bool, error) {
	endpoint := fmt.Sprintf("%s/exceptions/%s", g.baseURL, url.PathEscape(exceptionID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("checking exception %s: %w", exceptionID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("approvals API returned status %d for exception %s", resp.StatusCode, exceptionID)
	}

	var body struct {
		Approved bool `json:"approved"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decoding approval response: %w", err)
	}
	return body.Approved, nil
}
