package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"persona-profiler/internal/domain"
	"persona-profiler/internal/llm"
	"persona-profiler/internal/repository"
)

const (
	defaultPageSize    = 10
	maxPageSize        = 100
	defaultRecentLimit = 5
	maxRecentLimit     = 50

	// DefaultGenerationTimeout acota una generación compartida, independiente de
	// quién la haya disparado.
	DefaultGenerationTimeout = 200 * time.Second
)

var ErrProfileServiceNotConfigured = errors.New("profile service not configured")

// GenerateInput son los datos de una generación de perfil.
type GenerateInput struct {
	SessionID string
	OwnerID   string
	Answers   []domain.QuestionAnswer
}

// ProfileService genera y consulta perfiles. Garantiza como máximo un perfil por
// sesión: la restricción única del store cierra la carrera entre procesos y
// singleflight colapsa las llamadas duplicadas dentro del proceso.
type ProfileService struct {
	repo      repository.ProfileRepository
	provider  llm.Provider
	prompts   PromptBuilder
	extractor *ResponseExtractor
	logger    *zap.Logger
	group     singleflight.Group
	timeout   time.Duration
}

func NewProfileService(repo repository.ProfileRepository, provider llm.Provider, extractor *ResponseExtractor, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewResponseExtractor(logger)
	}
	return &ProfileService{
		repo:      repo,
		provider:  provider,
		extractor: extractor,
		logger:    logger,
		timeout:   DefaultGenerationTimeout,
	}
}

// SetGenerationTimeout cambia el límite de una generación. Valores <= 0 se ignoran.
func (s *ProfileService) SetGenerationTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Generate devuelve el perfil de la sesión, creándolo si no existe. Las llamadas
// repetidas devuelven el mismo perfil sin volver a invocar al proveedor.
func (s *ProfileService) Generate(ctx context.Context, in GenerateInput) (domain.Profile, error) {
	if s == nil || s.repo == nil || s.provider == nil {
		return domain.Profile{}, ErrProfileServiceNotConfigured
	}
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	if err := validateGenerateInput(in); err != nil {
		return domain.Profile{}, err
	}

	existing, err := s.repo.GetBySessionID(ctx, in.SessionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Profile{}, fmt.Errorf("lookup profile: %w", err)
	}

	// El flight no hereda la cancelación de quien lo dispara: si ese caller se va,
	// los demás siguen esperando el mismo perfil.
	ch := s.group.DoChan(in.SessionID, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.generate(flightCtx, in)
	})

	select {
	case <-ctx.Done():
		return domain.Profile{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Profile{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("profile generation shared", zap.String("session_id", in.SessionID))
		}
		return res.Val.(domain.Profile), nil
	}
}

func (s *ProfileService) generate(ctx context.Context, in GenerateInput) (domain.Profile, error) {
	// otro flight pudo terminar entre el fast path y este punto
	if existing, err := s.repo.GetBySessionID(ctx, in.SessionID); err == nil {
		return existing, nil
	}

	prompt := s.prompts.BuildReportPrompt(TranscriptFromAnswers(in.Answers))
	start := time.Now()
	content, err := s.provider.Send(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPromptAnalyzer},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		s.logger.Error("profile generation failed",
			zap.String("session_id", in.SessionID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return domain.Profile{}, fmt.Errorf("generate profile: %w", err)
	}
	s.logger.Info("profile generated",
		zap.String("session_id", in.SessionID),
		zap.Int("answers", len(in.Answers)),
		zap.Int("content_len", len(content)),
		zap.Duration("elapsed", time.Since(start)),
	)

	profile := domain.Profile{
		ID:             uuid.NewString(),
		SessionID:      in.SessionID,
		OwnerID:        in.OwnerID,
		Analysis:       content,
		StructuredData: s.extractor.Extract(in.SessionID, content),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Info("profile already created by concurrent caller", zap.String("session_id", in.SessionID))
			winner, getErr := s.repo.GetBySessionID(ctx, in.SessionID)
			if getErr != nil {
				return domain.Profile{}, fmt.Errorf("fetch concurrent profile: %w", getErr)
			}
			return winner, nil
		}
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func validateGenerateInput(in GenerateInput) error {
	verr := &ValidationError{}
	if in.SessionID == "" {
		verr.add("session_id", "required")
	}
	if len(in.Answers) == 0 {
		verr.add("answers", "required")
	}
	for i, qa := range in.Answers {
		if strings.TrimSpace(qa.Answer) == "" {
			verr.add(fmt.Sprintf("answers[%d].answer", i), "required")
		}
	}
	return verr.orNil()
}

func (s *ProfileService) Get(ctx context.Context, id string) (domain.Profile, error) {
	if s == nil || s.repo == nil {
		return domain.Profile{}, ErrProfileServiceNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Profile{}, newValidationError("id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

// GetBySession devuelve repository.ErrNotFound si la sesión aún no tiene perfil.
func (s *ProfileService) GetBySession(ctx context.Context, sessionID string) (domain.Profile, error) {
	if s == nil || s.repo == nil {
		return domain.Profile{}, ErrProfileServiceNotConfigured
	}
	return s.repo.GetBySessionID(ctx, strings.TrimSpace(sessionID))
}

// List pagina los perfiles, más recientes primero. ownerID vacío no filtra.
func (s *ProfileService) List(ctx context.Context, page, pageSize int, ownerID string) (domain.ProfilePage, error) {
	if s == nil || s.repo == nil {
		return domain.ProfilePage{}, ErrProfileServiceNotConfigured
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	list, total, err := s.repo.List(ctx, repository.ProfileFilter{
		OwnerID: strings.TrimSpace(ownerID),
		Limit:   pageSize,
		Offset:  (page - 1) * pageSize,
	})
	if err != nil {
		return domain.ProfilePage{}, fmt.Errorf("list profiles: %w", err)
	}
	if list == nil {
		list = []domain.Profile{}
	}
	return domain.ProfilePage{List: list, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *ProfileService) Recent(ctx context.Context, limit int, ownerID string) ([]domain.Profile, error) {
	if s == nil || s.repo == nil {
		return nil, ErrProfileServiceNotConfigured
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	list, _, err := s.repo.List(ctx, repository.ProfileFilter{OwnerID: strings.TrimSpace(ownerID), Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("recent profiles: %w", err)
	}
	if list == nil {
		list = []domain.Profile{}
	}
	return list, nil
}

// DegradedExtractions expone el contador de calidad del extractor.
func (s *ProfileService) DegradedExtractions() int64 {
	if s == nil {
		return 0
	}
	return s.extractor.DegradedCount()
}
