package citation

import (
	"context"
	"sort"

	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/metrics"
	"go.uber.org/zap"
)

// Resolver turns numbered sources into unified citations. Implementations
// must return one citation per cited source and must not fail the batch
// because a single link could not be resolved.
type Resolver interface {
	Resolve(ctx context.Context, cited []domain.CitedSource) []domain.UnifiedCitation
}

// Options configures a Composer
type Options struct {
	OffsetUnit OffsetUnit
}

// Composer builds the annotated answer and its citation list
type Composer struct {
	resolver Resolver
	opts     Options
	logger   *zap.Logger
}

// NewComposer creates a composer; resolver must not be nil
func NewComposer(resolver Resolver, opts Options, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OffsetUnit == "" {
		opts.OffsetUnit = OffsetBytes
	}
	return &Composer{resolver: resolver, opts: opts, logger: logger}
}

// ComposeWire decodes a wire answer and composes it from its citation spans
func (c *Composer) ComposeWire(ctx context.Context, w domain.WireAnswer) (*domain.ComposedAnswer, error) {
	answer, spans, refs := DecodeAnswer(w)
	return c.Compose(ctx, answer, spans, refs)
}

// Compose splices dense citation markers into answer.Text at the span
// offsets and resolves the cited references. A failed answer is returned
// as *domain.UpstreamFailureError without composing anything.
func (c *Composer) Compose(ctx context.Context, answer domain.RawAnswer, spans []domain.CitationSpan, refs []domain.SourceRecord) (*domain.ComposedAnswer, error) {
	if answer.State == domain.AnswerStateFailed {
		metrics.ComposeTotal.WithLabelValues("upstream_failure").Inc()
		return nil, &domain.UpstreamFailureError{Reasons: answer.SkipReasons}
	}

	merged := mergeSpans(c.filterSpans(answer.Text, spans, refs))

	r := NewRenumberer()
	insertions := make([]Insertion, 0, len(merged))
	for _, s := range merged {
		insertions = append(insertions, Insertion{Offset: s.EndOffset, Marker: r.Marker(s.SourceIndices)})
	}

	text, skipped := SpliceMarkers(answer.Text, insertions)
	if len(skipped) > 0 {
		c.logger.Warn("Citation markers skipped", zap.Int("count", len(skipped)))
	}

	return c.finish(ctx, text, r, refs)
}

// ComposeInlineWire decodes a wire answer whose text already carries raw
// [k] markers and composes it
func (c *Composer) ComposeInlineWire(ctx context.Context, w domain.WireAnswer) (*domain.ComposedAnswer, error) {
	answer, _, refs := DecodeAnswer(w)
	return c.ComposeInline(ctx, answer, refs)
}

// ComposeInline renumbers raw [k] markers in answer.Text, where k is the
// 1-based position of a reference. Markers pointing outside refs are removed.
func (c *Composer) ComposeInline(ctx context.Context, answer domain.RawAnswer, refs []domain.SourceRecord) (*domain.ComposedAnswer, error) {
	if answer.State == domain.AnswerStateFailed {
		metrics.ComposeTotal.WithLabelValues("upstream_failure").Inc()
		return nil, &domain.UpstreamFailureError{Reasons: answer.SkipReasons}
	}

	r := NewRenumberer()
	text := r.RewriteInline(answer.Text, func(raw int) (int, bool) {
		idx := raw - 1
		if idx < 0 || idx >= len(refs) || refs[idx] == nil {
			metrics.SpansDropped.WithLabelValues(metrics.DropOutOfRange).Inc()
			return 0, false
		}
		return idx, true
	})

	return c.finish(ctx, text, r, refs)
}

// finish resolves the numbered sources once text composition is complete
func (c *Composer) finish(ctx context.Context, text string, r *Renumberer, refs []domain.SourceRecord) (*domain.ComposedAnswer, error) {
	assignments := r.Assignments()
	cited := make([]domain.CitedSource, len(assignments))
	for i, a := range assignments {
		cited[i] = domain.CitedSource{Number: a.Number, SourceIndex: a.SourceIndex, Record: refs[a.SourceIndex]}
	}

	citations := []domain.UnifiedCitation{}
	if len(cited) > 0 {
		citations = c.resolver.Resolve(ctx, cited)
		sort.Slice(citations, func(i, j int) bool { return citations[i].Number < citations[j].Number })
	}

	if err := ctx.Err(); err != nil {
		metrics.ComposeTotal.WithLabelValues("canceled").Inc()
		return nil, err
	}

	metrics.ComposeTotal.WithLabelValues("composed").Inc()
	return &domain.ComposedAnswer{AnnotatedText: text, Citations: citations}, nil
}

// filterSpans drops spans that cannot be placed or that cite unknown
// references, converting offsets to bytes on the way.
func (c *Composer) filterSpans(text string, spans []domain.CitationSpan, refs []domain.SourceRecord) []domain.CitationSpan {
	kept := make([]domain.CitationSpan, 0, len(spans))
	for _, s := range spans {
		off, ok := ToByteOffset(text, s.EndOffset, c.opts.OffsetUnit)
		if !ok {
			c.drop(metrics.DropOutOfRange, s)
			continue
		}
		if !IsBoundary(text, off) {
			c.drop(metrics.DropNotBoundary, s)
			continue
		}
		if len(s.SourceIndices) == 0 {
			c.drop(metrics.DropNoSources, s)
			continue
		}
		valid := true
		for _, idx := range s.SourceIndices {
			if idx < 0 || idx >= len(refs) {
				c.drop(metrics.DropOutOfRange, s)
				valid = false
				break
			}
			if refs[idx] == nil {
				c.drop(metrics.DropBadReference, s)
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		kept = append(kept, domain.CitationSpan{EndOffset: off, SourceIndices: s.SourceIndices})
	}
	return kept
}

func (c *Composer) drop(reason string, s domain.CitationSpan) {
	metrics.SpansDropped.WithLabelValues(reason).Inc()
	c.logger.Debug("Dropped citation span",
		zap.String("reason", reason),
		zap.Int("end_offset", s.EndOffset),
		zap.Ints("source_indices", s.SourceIndices),
	)
}

// mergeSpans sorts spans by offset and unions the indices of spans that
// share an offset, keeping first-seen index order.
func mergeSpans(spans []domain.CitationSpan) []domain.CitationSpan {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].EndOffset < spans[j].EndOffset })

	merged := make([]domain.CitationSpan, 0, len(spans))
	for _, s := range spans {
		if n := len(merged); n > 0 && merged[n-1].EndOffset == s.EndOffset {
			merged[n-1].SourceIndices = appendUnique(merged[n-1].SourceIndices, s.SourceIndices...)
			continue
		}
		merged = append(merged, domain.CitationSpan{
			EndOffset:     s.EndOffset,
			SourceIndices: appendUnique(nil, s.SourceIndices...),
		})
	}
	return merged
}

func appendUnique(dst []int, values ...int) []int {
	for _, v := range values {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
