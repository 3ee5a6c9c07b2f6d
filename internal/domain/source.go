package domain

import "strings"

// SourceFormat is the file format of a document source
type SourceFormat string

const (
	SourceFormatPDF  SourceFormat = "pdf"
	SourceFormatDOCX SourceFormat = "docx"
)

// ParseSourceFormat returns the format and whether it is supported
func ParseSourceFormat(s string) (SourceFormat, bool) {
	switch SourceFormat(strings.ToLower(strings.TrimSpace(s))) {
	case SourceFormatPDF:
		return SourceFormatPDF, true
	case SourceFormatDOCX:
		return SourceFormatDOCX, true
	}
	return "", false
}

// SourceRecord is one entry of the reference list. It is either a
// VideoSource or a DocumentSource.
type SourceRecord interface {
	sourceRecord()
}

// VideoSource is a transcript segment of a video
type VideoSource struct {
	Title          string
	VideoID        string
	TimestampStart int // seconds
	Channel        string
	Snippet        string
}

// DocumentSource is a chunk of an uploaded document page
type DocumentSource struct {
	Title          string
	DocumentID     string
	Format         SourceFormat
	PageNumber     int // 0 when unknown
	SectionHeading string
	Snippet        string
}

func (VideoSource) sourceRecord()    {}
func (DocumentSource) sourceRecord() {}

// CitedSource is a reference that received a citation number
type CitedSource struct {
	Number      int
	SourceIndex int
	Record      SourceRecord
}
