package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/liliang-cn/askcite/internal/domain"
)

// HTTPLookup resolves page links against the document backend's
// GET /api/documents/{id}/link?page=N endpoint
type HTTPLookup struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLookup creates a lookup for the backend at baseURL. Timeouts come
// from the request context.
func NewHTTPLookup(baseURL string, client *http.Client) *HTTPLookup {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLookup{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// LookupPageLink fetches the link of one document page. Any response other
// than 200 with a non-empty url is a failure.
func (l *HTTPLookup) LookupPageLink(ctx context.Context, documentID string, page int) (string, error) {
	endpoint := fmt.Sprintf("%s/api/documents/%s/link?page=%s",
		l.baseURL, url.PathEscape(documentID), strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrLookupFailed, resp.StatusCode)
	}

	var link domain.DeepLink
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", fmt.Errorf("failed to decode link: %w", err)
	}
	if link.URL == "" {
		return "", fmt.Errorf("%w: empty url", domain.ErrLookupFailed)
	}
	return link.URL, nil
}
