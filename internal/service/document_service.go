package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/repository"
)

// DocumentService manages the document registry and serves page links
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	sessionRepo  *repository.SessionRepository
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documentRepo *repository.DocumentRepository,
	sessionRepo *repository.SessionRepository,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		sessionRepo:  sessionRepo,
	}
}

func (s *DocumentService) CreateDocument(ctx context.Context, req *domain.CreateDocumentRequest) (*domain.Document, error) {
	format, ok := domain.ParseSourceFormat(req.SourceType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported source_type %q", domain.ErrInvalidRequest, req.SourceType)
	}
	if req.PageCount < 0 || req.ChunkCount < 0 {
		return nil, fmt.Errorf("%w: counts must not be negative", domain.ErrInvalidRequest)
	}

	doc := &domain.Document{
		ID:          req.ID,
		Filename:    req.Filename,
		Title:       req.Title,
		SourceType:  format,
		PageCount:   req.PageCount,
		ChunkCount:  req.ChunkCount,
		OriginalURL: req.OriginalURL,
	}
	if doc.Title == "" {
		doc.Title = req.Filename
	}

	if err := s.documentRepo.Create(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.documentRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, page, pageSize int) (*domain.DocumentListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	docs, err := s.documentRepo.List(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := s.documentRepo.Count()
	if err != nil {
		return nil, err
	}

	return &domain.DocumentListResponse{
		Documents: docs,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

func (s *DocumentService) UpdateDocument(ctx context.Context, id string, req *domain.UpdateDocumentRequest) (*domain.Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Filename != "" {
		doc.Filename = req.Filename
	}
	if req.Title != "" {
		doc.Title = req.Title
	}
	if req.SourceType != "" {
		format, ok := domain.ParseSourceFormat(req.SourceType)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported source_type %q", domain.ErrInvalidRequest, req.SourceType)
		}
		doc.SourceType = format
	}
	if req.PageCount != nil {
		doc.PageCount = *req.PageCount
	}
	if req.ChunkCount != nil {
		doc.ChunkCount = *req.ChunkCount
	}
	if req.OriginalURL != "" {
		doc.OriginalURL = req.OriginalURL
	}

	if err := s.documentRepo.Update(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.documentRepo.Delete(id)
}

// PageLink builds the deep link of one document page. Page 0 links to the
// document itself; pdf pages get a #page=N fragment.
func (s *DocumentService) PageLink(ctx context.Context, id string, page int) (*domain.DeepLink, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if page < 0 || (doc.PageCount > 0 && page > doc.PageCount) {
		return nil, fmt.Errorf("%w: page %d out of range", domain.ErrInvalidRequest, page)
	}

	url := doc.OriginalURL
	if doc.SourceType == domain.SourceFormatPDF && page >= 1 {
		if i := strings.IndexByte(url, '#'); i >= 0 {
			url = url[:i]
		}
		url = fmt.Sprintf("%s#page=%d", url, page)
	}
	return &domain.DeepLink{URL: url}, nil
}

// LookupPageLink lets the resolver read page links from the local registry
func (s *DocumentService) LookupPageLink(ctx context.Context, documentID string, page int) (string, error) {
	link, err := s.PageLink(ctx, documentID, page)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// Stats

func (s *DocumentService) GetStats(ctx context.Context) (*domain.Stats, error) {
	docs, err := s.documentRepo.Count()
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.Count()
	if err != nil {
		return nil, err
	}
	answers, err := s.sessionRepo.CountAnswers()
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		TotalDocuments: docs,
		TotalSessions:  sessions,
		TotalAnswers:   answers,
	}, nil
}
