package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/askcite/internal/domain"
)

// SessionRepository handles session and message persistence
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO sessions (id, created_at, updated_at)
		VALUES (?, ?, ?)
	`, session.ID, session.CreatedAt, session.UpdatedAt)

	return err
}

// Get retrieves a session by ID, returning nil when it does not exist
func (r *SessionRepository) Get(id string) (*domain.Session, error) {
	session := &domain.Session{}

	err := r.db.QueryRow(`
		SELECT id, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Touch updates a session's updated_at timestamp
func (r *SessionRepository) Touch(id string) error {
	_, err := r.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

// CreateMessage stores a message with its citations
func (r *SessionRepository) CreateMessage(message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	var citations sql.NullString
	if len(message.Citations) > 0 {
		data, err := json.Marshal(message.Citations)
		if err != nil {
			return fmt.Errorf("failed to encode citations: %w", err)
		}
		citations = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO messages (id, session_id, role, content, citations, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, message.ID, message.SessionID, message.Role, message.Content,
		citations, message.CreatedAt)

	return err
}

// GetMessages retrieves all messages for a session, oldest first
func (r *SessionRepository) GetMessages(sessionID string) ([]*domain.Message, error) {
	rows, err := r.db.Query(`
		SELECT id, session_id, role, content, citations, created_at
		FROM messages WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		message := &domain.Message{}
		var citations sql.NullString

		if err := rows.Scan(&message.ID, &message.SessionID, &message.Role,
			&message.Content, &citations, &message.CreatedAt); err != nil {
			return nil, err
		}

		if citations.Valid && citations.String != "" {
			if err := json.Unmarshal([]byte(citations.String), &message.Citations); err != nil {
				return nil, fmt.Errorf("failed to decode citations of message %s: %w", message.ID, err)
			}
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// Count returns the number of sessions
func (r *SessionRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// CountAnswers returns the number of composed assistant messages
func (r *SessionRepository) CountAnswers() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE role = 'assistant'`).Scan(&count)
	return count, err
}
