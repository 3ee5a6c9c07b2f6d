package domain

// CitationKind discriminates unified citations
type CitationKind string

const (
	CitationKindVideo CitationKind = "video"
	CitationKindPDF   CitationKind = "pdf"
	CitationKindDOCX  CitationKind = "docx"
)

// UnifiedCitation is the normalized citation handed to clients
type UnifiedCitation struct {
	Number         int          `json:"number"`
	SourceIndex    int          `json:"source_index"`
	Kind           CitationKind `json:"kind"`
	Title          string       `json:"title"`
	Snippet        string       `json:"snippet,omitempty"`
	VideoID        string       `json:"video_id,omitempty"`
	TimestampStart int          `json:"timestamp_start,omitempty"`
	Channel        string       `json:"channel,omitempty"`
	DocumentID     string       `json:"document_id,omitempty"`
	PageNumber     int          `json:"page_number,omitempty"`
	SectionHeading string       `json:"section_heading,omitempty"`
	ResolvedLink   string       `json:"resolved_link,omitempty"`
}

// ComposedAnswer is the annotated answer with its ordered citations
type ComposedAnswer struct {
	AnnotatedText string            `json:"annotated_text"`
	Citations     []UnifiedCitation `json:"citations"`
}
