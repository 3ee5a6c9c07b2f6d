package citation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/metrics"
)

// OffsetUnit is the unit upstream span offsets are expressed in
type OffsetUnit string

const (
	OffsetBytes OffsetUnit = "bytes"
	OffsetUTF16 OffsetUnit = "utf16"
)

// ParseOffsetUnit parses a configured offset unit; empty means bytes
func ParseOffsetUnit(s string) (OffsetUnit, error) {
	switch OffsetUnit(strings.ToLower(strings.TrimSpace(s))) {
	case "", OffsetBytes:
		return OffsetBytes, nil
	case OffsetUTF16:
		return OffsetUTF16, nil
	}
	return "", fmt.Errorf("unknown offset unit %q", s)
}

// ToByteOffset converts an offset in unit into a byte offset of text.
// It fails for offsets past the end and for UTF-16 offsets that fall
// inside a surrogate pair.
func ToByteOffset(text string, off int, unit OffsetUnit) (int, bool) {
	if off < 0 {
		return 0, false
	}
	if unit != OffsetUTF16 {
		return off, off <= len(text)
	}

	units := 0
	for i, r := range text {
		if units == off {
			return i, true
		}
		if units > off {
			return 0, false
		}
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	if units == off {
		return len(text), true
	}
	return 0, false
}

// DecodeAnswer converts the wire payload into the engine model. Spans with
// an unparsable end offset are dropped; unparsable reference indices are
// removed from their span. References that match neither source kind are
// returned as nil entries so indices keep their positions.
func DecodeAnswer(w domain.WireAnswer) (domain.RawAnswer, []domain.CitationSpan, []domain.SourceRecord) {
	answer := domain.RawAnswer{
		Text:        w.Text,
		State:       domain.ParseAnswerState(w.State),
		SkipReasons: w.SkipReasons,
	}

	spans := make([]domain.CitationSpan, 0, len(w.Citations))
	for _, c := range w.Citations {
		end, err := strconv.Atoi(strings.TrimSpace(c.EndIndex))
		if err != nil || end < 0 {
			metrics.SpansDropped.WithLabelValues(metrics.DropBadOffset).Inc()
			continue
		}
		span := domain.CitationSpan{EndOffset: end}
		for _, s := range c.Sources {
			idx, err := strconv.Atoi(strings.TrimSpace(s.ReferenceIndex))
			if err != nil || idx < 0 {
				continue
			}
			span.SourceIndices = append(span.SourceIndices, idx)
		}
		spans = append(spans, span)
	}

	refs := make([]domain.SourceRecord, len(w.References))
	for i, r := range w.References {
		rec, err := DecodeReference(r)
		if err != nil {
			continue
		}
		refs[i] = rec
	}

	return answer, spans, refs
}

// DecodeReference builds the source record a wire reference describes
func DecodeReference(r domain.WireReference) (domain.SourceRecord, error) {
	snippet := r.Snippet
	if snippet == "" {
		snippet = r.Transcript
	}

	if r.DocumentID != "" && r.SourceType != "" {
		format, ok := domain.ParseSourceFormat(strings.ToLower(r.SourceType))
		if !ok {
			return nil, fmt.Errorf("unsupported source type %q", r.SourceType)
		}
		page := r.PageNumber
		if page < 1 {
			page = 0
		}
		return domain.DocumentSource{
			Title:          r.Title,
			DocumentID:     r.DocumentID,
			Format:         format,
			PageNumber:     page,
			SectionHeading: r.SectionHeading,
			Snippet:        snippet,
		}, nil
	}

	if r.VideoID != "" {
		ts := r.TimestampStart
		if ts < 0 {
			ts = 0
		}
		return domain.VideoSource{
			Title:          r.Title,
			VideoID:        r.VideoID,
			TimestampStart: ts,
			Channel:        r.Channel,
			Snippet:        snippet,
		}, nil
	}

	return nil, fmt.Errorf("reference %q has neither video_id nor document_id", r.Title)
}
