package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"persona-profiler/internal/domain"
	"persona-profiler/internal/repository"
)

var ErrAnswerServiceNotConfigured = errors.New("answer service not configured")

// SaveAnswerInput es una respuesta a una pregunta del cuestionario.
type SaveAnswerInput struct {
	SessionID  string
	QuestionID int64
	Content    string
	OwnerID    string
}

// AnswerItem es un elemento del guardado en lote.
type AnswerItem struct {
	QuestionID int64
	Content    string
}

// AnswerService guarda respuestas con upsert por (session_id, question_id).
// Una vez generado el perfil de la sesión, las respuestas quedan congeladas.
type AnswerService struct {
	answers  repository.AnswerRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewAnswerService(answers repository.AnswerRepository, profiles repository.ProfileRepository, logger *zap.Logger) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{answers: answers, profiles: profiles, logger: logger}
}

func (s *AnswerService) SaveAnswer(ctx context.Context, in SaveAnswerInput) (domain.Answer, error) {
	if s == nil || s.answers == nil {
		return domain.Answer{}, ErrAnswerServiceNotConfigured
	}
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.Content = strings.TrimSpace(in.Content)

	verr := &ValidationError{}
	if in.SessionID == "" {
		verr.add("session_id", "required")
	}
	if in.QuestionID <= 0 {
		verr.add("question_id", "must be positive")
	}
	if in.Content == "" {
		verr.add("content", "required")
	}
	if err := verr.orNil(); err != nil {
		return domain.Answer{}, err
	}

	if err := s.ensureOpen(ctx, in.SessionID); err != nil {
		return domain.Answer{}, err
	}
	return s.upsert(ctx, in)
}

// SaveBatch guarda varias respuestas y devuelve todas las de la sesión.
// Se valida el lote completo antes de escribir nada.
func (s *AnswerService) SaveBatch(ctx context.Context, sessionID, ownerID string, items []AnswerItem) ([]domain.Answer, error) {
	if s == nil || s.answers == nil {
		return nil, ErrAnswerServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)

	verr := &ValidationError{}
	if sessionID == "" {
		verr.add("session_id", "required")
	}
	if len(items) == 0 {
		verr.add("answers", "required")
	}
	for i, item := range items {
		if item.QuestionID <= 0 {
			verr.add(fmt.Sprintf("answers[%d].question_id", i), "must be positive")
		}
		if strings.TrimSpace(item.Content) == "" {
			verr.add(fmt.Sprintf("answers[%d].content", i), "required")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if err := s.ensureOpen(ctx, sessionID); err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, err := s.upsert(ctx, SaveAnswerInput{
			SessionID:  sessionID,
			QuestionID: item.QuestionID,
			Content:    strings.TrimSpace(item.Content),
			OwnerID:    ownerID,
		}); err != nil {
			return nil, err
		}
	}
	return s.answers.ListBySessionID(ctx, sessionID)
}

func (s *AnswerService) List(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	if s == nil || s.answers == nil {
		return nil, ErrAnswerServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newValidationError("session_id", "required")
	}
	return s.answers.ListBySessionID(ctx, sessionID)
}

func (s *AnswerService) upsert(ctx context.Context, in SaveAnswerInput) (domain.Answer, error) {
	now := time.Now().UTC()
	saved, err := s.answers.Upsert(ctx, domain.Answer{
		ID:         uuid.NewString(),
		SessionID:  in.SessionID,
		QuestionID: in.QuestionID,
		Content:    in.Content,
		OwnerID:    strings.TrimSpace(in.OwnerID),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("save answer: %w", err)
	}
	return saved, nil
}

// ensureOpen rechaza escrituras si la sesión ya tiene perfil: el perfil solo
// deriva de respuestas existentes al momento de generarlo.
func (s *AnswerService) ensureOpen(ctx context.Context, sessionID string) error {
	if s.profiles == nil {
		return nil
	}
	_, err := s.profiles.GetBySessionID(ctx, sessionID)
	if err == nil {
		s.logger.Info("answer rejected, profile exists", zap.String("session_id", sessionID))
		return ErrTranscriptFrozen
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("check profile: %w", err)
}
