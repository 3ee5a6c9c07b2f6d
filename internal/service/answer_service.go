package service

import (
	"context"
	"strings"

	"github.com/liliang-cn/askcite/internal/citation"
	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/repository"
	"github.com/liliang-cn/askcite/internal/stream"
	"go.uber.org/zap"
)

// NoticeEmptyInput marks responses that carry the empty input prompt
const NoticeEmptyInput = "empty_input"

// AnswerService composes upstream answers and keeps session history
type AnswerService struct {
	composer    *citation.Composer
	emitter     *stream.Emitter
	sessionRepo *repository.SessionRepository
	logger      *zap.Logger
}

// NewAnswerService creates a new answer service. A nil sessionRepo
// disables history.
func NewAnswerService(
	composer *citation.Composer,
	emitter *stream.Emitter,
	sessionRepo *repository.SessionRepository,
	logger *zap.Logger,
) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{
		composer:    composer,
		emitter:     emitter,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Compose turns a wire answer into annotated text with citations. A failed
// upstream answer returns *domain.UpstreamFailureError.
func (s *AnswerService) Compose(ctx context.Context, req *domain.ComposeRequest) (*domain.ComposeResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return emptyInputResponse(req.SessionID), nil
	}

	if err := s.checkSession(req.SessionID); err != nil {
		return nil, err
	}

	// a failed upstream answer leaves no session or message behind
	composed, err := s.compose(ctx, req)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.openSession(req.SessionID)
	if err != nil {
		return nil, err
	}

	if err := s.saveMessage(&domain.Message{SessionID: sessionID, Role: "user", Content: req.Query}); err != nil {
		return nil, err
	}

	if composed == nil {
		return emptyInputResponse(sessionID), nil
	}

	if err := s.saveAnswer(sessionID, composed); err != nil {
		return nil, err
	}

	return &domain.ComposeResponse{
		SessionID: sessionID,
		Answer:    composed.AnnotatedText,
		Citations: composed.Citations,
	}, nil
}

// ComposeStream composes the answer in full and then streams it. Errors
// are returned before any frame is produced.
func (s *AnswerService) ComposeStream(ctx context.Context, req *domain.ComposeRequest) (<-chan domain.StreamChunk, error) {
	resp, err := s.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.emitter.Emit(ctx, resp.Answer, resp.Citations), nil
}

// GetHistory returns the messages of a session
func (s *AnswerService) GetHistory(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	if s.sessionRepo == nil {
		return nil, domain.ErrNotFound
	}
	session, err := s.sessionRepo.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	return s.sessionRepo.GetMessages(sessionID)
}

// compose returns nil, nil when the upstream answer has no text
func (s *AnswerService) compose(ctx context.Context, req *domain.ComposeRequest) (*domain.ComposedAnswer, error) {
	var (
		composed *domain.ComposedAnswer
		err      error
	)
	if req.Mode == domain.AnswerModeInline {
		composed, err = s.composer.ComposeInlineWire(ctx, req.Answer)
	} else {
		composed, err = s.composer.ComposeWire(ctx, req.Answer)
	}
	if err != nil {
		s.logger.Info("Answer not composed", zap.Error(err))
		return nil, err
	}

	if strings.TrimSpace(composed.AnnotatedText) == "" {
		return nil, nil
	}
	return composed, nil
}

// checkSession fails with domain.ErrNotFound for an unknown session id
func (s *AnswerService) checkSession(id string) error {
	if s.sessionRepo == nil || id == "" {
		return nil
	}
	session, err := s.sessionRepo.Get(id)
	if err != nil {
		return err
	}
	if session == nil {
		return domain.ErrNotFound
	}
	return nil
}

func (s *AnswerService) openSession(id string) (string, error) {
	if s.sessionRepo == nil || id != "" {
		return id, nil
	}

	session := &domain.Session{}
	if err := s.sessionRepo.Create(session); err != nil {
		return "", err
	}
	return session.ID, nil
}

func (s *AnswerService) saveMessage(msg *domain.Message) error {
	if s.sessionRepo == nil {
		return nil
	}
	return s.sessionRepo.CreateMessage(msg)
}

func (s *AnswerService) saveAnswer(sessionID string, composed *domain.ComposedAnswer) error {
	if s.sessionRepo == nil {
		return nil
	}
	msg := &domain.Message{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   composed.AnnotatedText,
		Citations: composed.Citations,
	}
	if err := s.sessionRepo.CreateMessage(msg); err != nil {
		return err
	}
	return s.sessionRepo.Touch(sessionID)
}

func emptyInputResponse(sessionID string) *domain.ComposeResponse {
	return &domain.ComposeResponse{
		SessionID: sessionID,
		Answer:    domain.EmptyInputPrompt,
		Citations: []domain.UnifiedCitation{},
		Notice:    NoticeEmptyInput,
	}
}
