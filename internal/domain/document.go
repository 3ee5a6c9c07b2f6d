package domain

import "time"

// Document is the registry entry of an uploaded document. Chunks indexed
// for search carry its ID in their document_id field.
type Document struct {
	ID          string       `json:"document_id"`
	Filename    string       `json:"filename"`
	Title       string       `json:"title"`
	SourceType  SourceFormat `json:"source_type"`
	PageCount   int          `json:"page_count"`
	ChunkCount  int          `json:"chunk_count"`
	OriginalURL string       `json:"original_url"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CreateDocumentRequest registers a processed document
type CreateDocumentRequest struct {
	ID          string `json:"document_id,omitempty"`
	Filename    string `json:"filename" binding:"required"`
	Title       string `json:"title,omitempty"`
	SourceType  string `json:"source_type" binding:"required"`
	PageCount   int    `json:"page_count"`
	ChunkCount  int    `json:"chunk_count"`
	OriginalURL string `json:"original_url" binding:"required"`
}

// UpdateDocumentRequest changes the non-empty fields of a document
type UpdateDocumentRequest struct {
	Filename    string `json:"filename,omitempty"`
	Title       string `json:"title,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	PageCount   *int   `json:"page_count,omitempty"`
	ChunkCount  *int   `json:"chunk_count,omitempty"`
	OriginalURL string `json:"original_url,omitempty"`
}

// DocumentListResponse is the response for listing documents
type DocumentListResponse struct {
	Documents []*Document `json:"documents"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
}

// DeepLink is the document-serving backend's link response
type DeepLink struct {
	URL string `json:"url"`
}
