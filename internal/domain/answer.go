package domain

import "strings"

// AnswerState is the generation state reported by the answer service
type AnswerState string

const (
	AnswerStateUnspecified AnswerState = "STATE_UNSPECIFIED"
	AnswerStateInProgress  AnswerState = "IN_PROGRESS"
	AnswerStateFailed      AnswerState = "FAILED"
	AnswerStateSucceeded   AnswerState = "SUCCEEDED"
)

// ParseAnswerState maps an upstream state string onto AnswerState.
// Unknown values become AnswerStateUnspecified.
func ParseAnswerState(s string) AnswerState {
	switch AnswerState(strings.ToUpper(strings.TrimSpace(s))) {
	case AnswerStateSucceeded:
		return AnswerStateSucceeded
	case AnswerStateFailed:
		return AnswerStateFailed
	case AnswerStateInProgress:
		return AnswerStateInProgress
	default:
		return AnswerStateUnspecified
	}
}

// RawAnswer is the generated answer as received from upstream
type RawAnswer struct {
	Text        string      `json:"text"`
	State       AnswerState `json:"state"`
	SkipReasons []string    `json:"skip_reasons,omitempty"`
}

// CitationSpan points at a byte offset in RawAnswer.Text and the
// reference indices that substantiate the text before it.
type CitationSpan struct {
	EndOffset     int   `json:"end_offset"`
	SourceIndices []int `json:"source_indices"`
}

// WireAnswer is the answer payload as delivered by the answer service.
// Offsets and indices arrive as decimal strings.
type WireAnswer struct {
	Text        string          `json:"text"`
	State       string          `json:"state"`
	SkipReasons []string        `json:"skipReasons,omitempty"`
	Citations   []WireCitation  `json:"citations,omitempty"`
	References  []WireReference `json:"references,omitempty"`
}

// WireCitation is one citation span in wire form
type WireCitation struct {
	StartIndex string               `json:"startIndex,omitempty"`
	EndIndex   string               `json:"endIndex"`
	Sources    []WireCitationSource `json:"sources"`
}

// WireCitationSource references one entry of WireAnswer.References
type WireCitationSource struct {
	ReferenceIndex string `json:"referenceIndex"`
}

// WireReference carries the chunk struct data indexed for a source.
// Video chunks set VideoID; document chunks set DocumentID and SourceType.
type WireReference struct {
	Title          string `json:"title"`
	Snippet        string `json:"snippet,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	VideoID        string `json:"video_id,omitempty"`
	TimestampStart int    `json:"timestamp_start,omitempty"`
	Channel        string `json:"channel,omitempty"`
	DocumentID     string `json:"document_id,omitempty"`
	SourceType     string `json:"source_type,omitempty"`
	PageNumber     int    `json:"page_number,omitempty"`
	SectionHeading string `json:"section_heading,omitempty"`
}
