package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/askcite/internal/domain"
)

// DocumentRepository handles document registry persistence
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, filename, title, source_type, page_count, chunk_count, original_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	doc := &domain.Document{}
	var title sql.NullString
	var sourceType string

	if err := row.Scan(&doc.ID, &doc.Filename, &title, &sourceType, &doc.PageCount,
		&doc.ChunkCount, &doc.OriginalURL, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Title = title.String
	doc.SourceType = domain.SourceFormat(sourceType)
	return doc, nil
}

// Create registers a document
func (r *DocumentRepository) Create(doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.Title, string(doc.SourceType), doc.PageCount,
		doc.ChunkCount, doc.OriginalURL, doc.CreatedAt, doc.UpdatedAt)

	return err
}

// Get retrieves a document by ID, returning nil when it does not exist
func (r *DocumentRepository) Get(id string) (*domain.Document, error) {
	doc, err := scanDocument(r.db.QueryRow(`
		SELECT `+documentColumns+`
		FROM documents WHERE id = ?
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List retrieves documents newest first
func (r *DocumentRepository) List(limit, offset int) ([]*domain.Document, error) {
	rows, err := r.db.Query(`
		SELECT `+documentColumns+`
		FROM documents ORDER BY created_at DESC, id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Update updates the mutable fields of a document
func (r *DocumentRepository) Update(doc *domain.Document) error {
	doc.UpdatedAt = time.Now()

	result, err := r.db.Exec(`
		UPDATE documents SET filename = ?, title = ?, source_type = ?, page_count = ?,
			chunk_count = ?, original_url = ?, updated_at = ?
		WHERE id = ?
	`, doc.Filename, doc.Title, string(doc.SourceType), doc.PageCount,
		doc.ChunkCount, doc.OriginalURL, doc.UpdatedAt, doc.ID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Count returns the number of registered documents
func (r *DocumentRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}
