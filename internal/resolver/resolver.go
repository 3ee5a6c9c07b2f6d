// Package resolver normalizes cited sources into unified citations and
// resolves their deep links.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultVideoBaseURL is the watch page video links are built on
const DefaultVideoBaseURL = "https://www.youtube.com/watch"

// LinkLookup fetches the deep link of one document page
type LinkLookup interface {
	LookupPageLink(ctx context.Context, documentID string, page int) (string, error)
}

// LookupFunc adapts a function to LinkLookup
type LookupFunc func(ctx context.Context, documentID string, page int) (string, error)

// LookupPageLink calls f
func (f LookupFunc) LookupPageLink(ctx context.Context, documentID string, page int) (string, error) {
	return f(ctx, documentID, page)
}

// Options configures a Resolver
type Options struct {
	BackendBaseURL       string
	LookupTimeout        time.Duration
	MaxConcurrentLookups int
	VideoBaseURL         string
}

// DefaultOptions returns the resolver defaults
func DefaultOptions() Options {
	return Options{
		LookupTimeout:        3 * time.Second,
		MaxConcurrentLookups: 8,
		VideoBaseURL:         DefaultVideoBaseURL,
	}
}

// PageKey identifies one page-addressable lookup
type PageKey struct {
	DocumentID string
	Page       int
}

// LookupResult is the outcome of one page lookup
type LookupResult struct {
	URL string
	Err error
}

// OK reports whether the lookup produced a link
func (r LookupResult) OK() bool { return r.Err == nil && r.URL != "" }

// Resolver builds unified citations. Video links are computed in place;
// pdf page links go through lookup, deduplicated per request.
type Resolver struct {
	lookup LinkLookup
	cache  LinkCache
	opts   Options
	logger *zap.Logger
}

// New creates a resolver. A nil lookup disables page link resolution and
// a nil cache disables cross-request caching.
func New(lookup LinkLookup, cache LinkCache, opts Options, logger *zap.Logger) *Resolver {
	defaults := DefaultOptions()
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = defaults.LookupTimeout
	}
	if opts.MaxConcurrentLookups <= 0 {
		opts.MaxConcurrentLookups = defaults.MaxConcurrentLookups
	}
	if opts.VideoBaseURL == "" {
		opts.VideoBaseURL = defaults.VideoBaseURL
	}
	if cache == nil {
		cache = NopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, cache: cache, opts: opts, logger: logger}
}

// Resolve returns one citation per cited source, in input order. Lookup
// failures leave ResolvedLink empty.
func (r *Resolver) Resolve(ctx context.Context, cited []domain.CitedSource) []domain.UnifiedCitation {
	out := make([]domain.UnifiedCitation, len(cited))
	pending := make(map[PageKey][]int)
	var keys []PageKey

	for i, c := range cited {
		out[i] = r.normalize(c)
		if key, ok := pageKey(c.Record); ok && r.lookup != nil {
			if _, seen := pending[key]; !seen {
				keys = append(keys, key)
			}
			pending[key] = append(pending[key], i)
		}
	}

	if len(keys) == 0 {
		return out
	}

	results := r.resolvePages(ctx, keys)
	for i, key := range keys {
		if !results[i].OK() {
			continue
		}
		for _, idx := range pending[key] {
			out[idx].ResolvedLink = results[i].URL
		}
	}
	return out
}

// resolvePages runs one lookup per distinct key, bounded by
// MaxConcurrentLookups, and joins before returning.
func (r *Resolver) resolvePages(ctx context.Context, keys []PageKey) []LookupResult {
	results := make([]LookupResult, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrentLookups)
	for i, key := range keys {
		g.Go(func() error {
			results[i] = r.lookupPage(gctx, key)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Resolver) lookupPage(ctx context.Context, key PageKey) LookupResult {
	if err := ctx.Err(); err != nil {
		return LookupResult{Err: err}
	}

	if link, ok := r.cache.Get(ctx, key); ok {
		metrics.DeepLinkLookups.WithLabelValues("cache_hit").Inc()
		return LookupResult{URL: link}
	}

	lctx, cancel := context.WithTimeout(ctx, r.opts.LookupTimeout)
	defer cancel()

	start := time.Now()
	link, err := r.lookup.LookupPageLink(lctx, key.DocumentID, key.Page)
	metrics.DeepLinkLookupDuration.Observe(time.Since(start).Seconds())

	if err == nil && link == "" {
		err = domain.ErrLookupFailed
	}
	if err != nil {
		metrics.DeepLinkLookups.WithLabelValues("failure").Inc()
		r.logger.Warn("Deep link lookup failed",
			zap.String("document_id", key.DocumentID),
			zap.Int("page", key.Page),
			zap.Error(err),
		)
		return LookupResult{Err: err}
	}

	metrics.DeepLinkLookups.WithLabelValues("success").Inc()
	r.cache.Set(ctx, key, link)
	return LookupResult{URL: link}
}

// normalize copies the kind specific fields of a cited source
func (r *Resolver) normalize(c domain.CitedSource) domain.UnifiedCitation {
	uc := domain.UnifiedCitation{Number: c.Number, SourceIndex: c.SourceIndex}

	switch rec := c.Record.(type) {
	case domain.VideoSource:
		uc.Kind = domain.CitationKindVideo
		uc.Title = rec.Title
		uc.Snippet = rec.Snippet
		uc.VideoID = rec.VideoID
		uc.TimestampStart = rec.TimestampStart
		uc.Channel = rec.Channel
		uc.ResolvedLink = VideoLink(r.opts.VideoBaseURL, rec.VideoID, rec.TimestampStart)
	case domain.DocumentSource:
		uc.Kind = documentKind(rec.Format)
		uc.Title = rec.Title
		uc.Snippet = rec.Snippet
		uc.DocumentID = rec.DocumentID
		uc.PageNumber = rec.PageNumber
		uc.SectionHeading = rec.SectionHeading
	default:
		panic(fmt.Sprintf("resolver: unknown source record %T", c.Record))
	}
	return uc
}

// pageKey returns the lookup key of page-addressable sources
func pageKey(rec domain.SourceRecord) (PageKey, bool) {
	doc, ok := rec.(domain.DocumentSource)
	if !ok || doc.Format != domain.SourceFormatPDF || doc.PageNumber < 1 {
		return PageKey{}, false
	}
	return PageKey{DocumentID: doc.DocumentID, Page: doc.PageNumber}, true
}

func documentKind(f domain.SourceFormat) domain.CitationKind {
	if f == domain.SourceFormatDOCX {
		return domain.CitationKindDOCX
	}
	return domain.CitationKindPDF
}

// VideoLink builds a watch link that starts at ts seconds
func VideoLink(base, videoID string, ts int) string {
	if base == "" {
		base = DefaultVideoBaseURL
	}
	q := url.Values{}
	q.Set("v", videoID)
	return base + "?" + q.Encode() + "&t=" + strconv.Itoa(ts) + "s"
}
