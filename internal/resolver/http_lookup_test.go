package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/documents/abc/link":
			assert.Equal(t, "4", r.URL.Query().Get("page"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"url":"https://files/abc.pdf#page=4"}`))
		case "/api/documents/empty/link":
			_, _ = w.Write([]byte(`{"url":""}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	lookup := NewHTTPLookup(srv.URL+"/", srv.Client())
	ctx := context.Background()

	link, err := lookup.LookupPageLink(ctx, "abc", 4)
	require.NoError(t, err)
	assert.Equal(t, "https://files/abc.pdf#page=4", link)

	_, err = lookup.LookupPageLink(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrLookupFailed)

	_, err = lookup.LookupPageLink(ctx, "empty", 1)
	assert.ErrorIs(t, err, domain.ErrLookupFailed)
}

func TestHTTPLookup_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPLookup(url, nil).LookupPageLink(context.Background(), "a", 1)
	assert.Error(t, err)
}
