package domain

import "time"

// EmptyInputPrompt is returned instead of an answer when there is nothing to compose
const EmptyInputPrompt = "Please enter a question to search the knowledge base."

// Session represents a question/answer session
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message represents a chat message
type Message struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Role      string            `json:"role"` // user, assistant
	Content   string            `json:"content"`
	Citations []UnifiedCitation `json:"citations,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// AnswerMode selects how citations are carried by the upstream answer
type AnswerMode string

const (
	AnswerModeSpans  AnswerMode = "spans"
	AnswerModeInline AnswerMode = "inline"
)

// ComposeRequest is the request to compose an upstream answer
type ComposeRequest struct {
	SessionID string     `json:"session_id,omitempty"`
	Query     string     `json:"query"`
	Mode      AnswerMode `json:"mode,omitempty"`
	Answer    WireAnswer `json:"answer"`
}

// ComposeResponse is the composed answer returned to clients
type ComposeResponse struct {
	SessionID string            `json:"session_id,omitempty"`
	Answer    string            `json:"answer"`
	Citations []UnifiedCitation `json:"citations"`
	Notice    string            `json:"notice,omitempty"` // empty_input
}

// Stream chunk types
const (
	ChunkTypeContent = "content"
	ChunkTypeDone    = "done"
	ChunkTypeError   = "error"
)

// FinishReasonStop is the completion reason of a fully delivered answer
const FinishReasonStop = "stop"

// StreamChunk represents a chunk in SSE stream
type StreamChunk struct {
	Type         string            `json:"type"` // content, done, error
	Content      string            `json:"content,omitempty"`
	FinishReason string            `json:"finish_reason,omitempty"`
	Citations    []UnifiedCitation `json:"citations,omitempty"`
	Reasons      []string          `json:"reasons,omitempty"`
}

// Stats represents system statistics
type Stats struct {
	TotalDocuments int `json:"total_documents"`
	TotalSessions  int `json:"total_sessions"`
	TotalAnswers   int `json:"total_answers"`
}
