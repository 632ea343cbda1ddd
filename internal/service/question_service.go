package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"persona-profiler/internal/domain"
	"persona-profiler/internal/repository"
)

var ErrQuestionServiceNotConfigured = errors.New("question service not configured")

var catalogSeededAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultQuestions es el cuestionario fijo que se siembra al arrancar.
var DefaultQuestions = []domain.Question{
	{ID: 1, Category: "lifestyle", Content: "How do you usually spend a free weekend?", OrderNum: 1, IsRequired: true, CreatedAt: catalogSeededAt},
	{ID: 2, Category: "decisions", Content: "How do you make important decisions?", OrderNum: 2, IsRequired: true, CreatedAt: catalogSeededAt},
	{ID: 3, Category: "relationships", Content: "What do you do when someone close to you disagrees with you?", OrderNum: 3, IsRequired: true, CreatedAt: catalogSeededAt},
	{ID: 4, Category: "stress", Content: "Which situations stress you the most, and how do you react?", OrderNum: 4, IsRequired: true, CreatedAt: catalogSeededAt},
	{ID: 5, Category: "values", Content: "What principle would you never compromise on?", OrderNum: 5, IsRequired: true, CreatedAt: catalogSeededAt},
	{ID: 6, Category: "motivation", Content: "What achievement are you most proud of, and why?", OrderNum: 6, IsRequired: true, CreatedAt: catalogSeededAt},
	{ID: 7, Category: "work", Content: "What kind of work gives you energy, and what drains it?", OrderNum: 7, IsRequired: true, CreatedAt: catalogSeededAt},
	{ID: 8, Category: "self", Content: "How would a close friend describe you in three words?", OrderNum: 8, IsRequired: false, CreatedAt: catalogSeededAt},
}

// QuestionService expone el catálogo de preguntas del cuestionario.
type QuestionService struct {
	repo   repository.QuestionRepository
	logger *zap.Logger
}

func NewQuestionService(repo repository.QuestionRepository, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{repo: repo, logger: logger}
}

// EnsureCatalog siembra DefaultQuestions sin pisar preguntas ya cargadas.
func (s *QuestionService) EnsureCatalog(ctx context.Context) error {
	if s == nil || s.repo == nil {
		return ErrQuestionServiceNotConfigured
	}
	if err := s.repo.Seed(ctx, DefaultQuestions); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	s.logger.Info("question catalog ready", zap.Int("defaults", len(DefaultQuestions)))
	return nil
}

func (s *QuestionService) List(ctx context.Context) ([]domain.Question, error) {
	if s == nil || s.repo == nil {
		return nil, ErrQuestionServiceNotConfigured
	}
	questions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// Get acepta el id tal como llega en la ruta.
func (s *QuestionService) Get(ctx context.Context, rawID string) (domain.Question, error) {
	if s == nil || s.repo == nil {
		return domain.Question{}, ErrQuestionServiceNotConfigured
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return domain.Question{}, newValidationError("id", "must be a positive integer")
	}
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Question{}, err
		}
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}
