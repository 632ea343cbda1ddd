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
	"persona-profiler/internal/llm"
	"persona-profiler/internal/repository"
)

// OpeningQuestion es la primera pregunta de toda entrevista; no pasa por el proveedor.
const OpeningQuestion = "To get started, tell me about a recent experience that mattered to you. What happened, and why did it stay with you?"

// ProviderFailureNotice se agrega como mensaje de sistema cuando falla la generación de la pregunta.
const ProviderFailureNotice = "The interviewer could not generate the next question. Please try again."

const DefaultReportMinTurns = 8

var ErrInterviewServiceNotConfigured = errors.New("interview service not configured")

// InterviewState es la foto de una sesión para el cliente.
type InterviewState struct {
	Session    domain.Session        `json:"session"`
	Phase      domain.InterviewPhase `json:"phase"`
	Turn       int                   `json:"turn"`
	CanReport  bool                  `json:"can_report"`
	Transcript []domain.Message      `json:"transcript"`
}

// InterviewService es la máquina de estados de la entrevista:
// Idle -> Active(n) -> ReadyForReport(n >= minTurns) -> Reported.
type InterviewService struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	profiles *ProfileService
	provider llm.Provider
	prompts  PromptBuilder
	minTurns int
	logger   *zap.Logger
}

func NewInterviewService(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	profiles *ProfileService,
	provider llm.Provider,
	minTurns int,
	logger *zap.Logger,
) *InterviewService {
	if minTurns <= 0 {
		minTurns = DefaultReportMinTurns
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewService{
		sessions: sessions,
		messages: messages,
		profiles: profiles,
		provider: provider,
		minTurns: minTurns,
		logger:   logger,
	}
}

func (s *InterviewService) configured() bool {
	return s != nil && s.sessions != nil && s.messages != nil && s.profiles != nil && s.provider != nil
}

// StartInterview crea la sesión y agrega la pregunta de apertura.
func (s *InterviewService) StartInterview(ctx context.Context, ownerID string) (domain.Session, domain.Message, error) {
	if !s.configured() {
		return domain.Session{}, domain.Message{}, ErrInterviewServiceNotConfigured
	}
	session := domain.Session{
		ID:        uuid.NewString(),
		OwnerID:   strings.TrimSpace(ownerID),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, domain.Message{}, fmt.Errorf("create session: %w", err)
	}
	opening, err := s.appendMessage(ctx, session.ID, domain.RoleAssistant, OpeningQuestion)
	if err != nil {
		return domain.Session{}, domain.Message{}, err
	}
	s.logger.Info("interview started", zap.String("session_id", session.ID))
	return session, opening, nil
}

// AskNextQuestion registra la respuesta y pide la siguiente pregunta. Si el
// proveedor falla se agrega un único mensaje de sistema, el turno no avanza y se
// devuelve ese mensaje junto con el error.
func (s *InterviewService) AskNextQuestion(ctx context.Context, sessionID, answer string) (domain.Message, InterviewState, error) {
	if !s.configured() {
		return domain.Message{}, InterviewState{}, ErrInterviewServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return domain.Message{}, InterviewState{}, newValidationError("content", "required")
	}

	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return domain.Message{}, InterviewState{}, err
	}
	transcript, err := s.messages.ListBySessionID(ctx, sessionID)
	if err != nil {
		return domain.Message{}, InterviewState{}, fmt.Errorf("load transcript: %w", err)
	}

	// un reintento tras un fallo del proveedor reusa la respuesta ya guardada
	if pendingAnswer(transcript, answer) {
		s.logger.Info("retrying next question", zap.String("session_id", sessionID))
	} else {
		msg, err := s.appendMessage(ctx, sessionID, domain.RoleUser, answer)
		if err != nil {
			return domain.Message{}, InterviewState{}, err
		}
		transcript = append(transcript, msg)
	}

	question, sendErr := s.provider.Send(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPromptInterviewer},
		{Role: llm.RoleUser, Content: s.prompts.BuildNextQuestionPrompt(transcript)},
	})
	if sendErr != nil {
		s.logger.Warn("next question failed", zap.String("session_id", sessionID), zap.Error(sendErr))
		notice, err := s.appendMessage(ctx, sessionID, domain.RoleSystem, ProviderFailureNotice)
		if err != nil {
			return domain.Message{}, InterviewState{}, err
		}
		state, err := s.State(ctx, sessionID)
		if err != nil {
			return domain.Message{}, InterviewState{}, err
		}
		return notice, state, fmt.Errorf("next question: %w", sendErr)
	}

	msg, err := s.appendMessage(ctx, sessionID, domain.RoleAssistant, strings.TrimSpace(question))
	if err != nil {
		return domain.Message{}, InterviewState{}, err
	}
	if _, err := s.sessions.IncrementTurn(ctx, sessionID); err != nil {
		return domain.Message{}, InterviewState{}, fmt.Errorf("advance turn: %w", err)
	}

	state, err := s.State(ctx, sessionID)
	if err != nil {
		return domain.Message{}, InterviewState{}, err
	}
	return msg, state, nil
}

// GenerateReport exige al menos minTurns turnos salvo que el perfil ya exista;
// en ese caso devuelve el guardado.
func (s *InterviewService) GenerateReport(ctx context.Context, sessionID string) (domain.Profile, error) {
	if !s.configured() {
		return domain.Profile{}, ErrInterviewServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Profile{}, err
	}
	if existing, err := s.profiles.GetBySession(ctx, sessionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Profile{}, fmt.Errorf("lookup profile: %w", err)
	}
	if session.Turn < s.minTurns {
		return domain.Profile{}, fmt.Errorf("%w: %d of %d turns", ErrReportNotReady, session.Turn, s.minTurns)
	}

	transcript, err := s.messages.ListBySessionID(ctx, sessionID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load transcript: %w", err)
	}
	return s.profiles.Generate(ctx, GenerateInput{
		SessionID: sessionID,
		OwnerID:   session.OwnerID,
		Answers:   pairsFromTranscript(transcript),
	})
}

func (s *InterviewService) State(ctx context.Context, sessionID string) (InterviewState, error) {
	if !s.configured() {
		return InterviewState{}, ErrInterviewServiceNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return InterviewState{}, err
	}
	transcript, err := s.messages.ListBySessionID(ctx, sessionID)
	if err != nil {
		return InterviewState{}, fmt.Errorf("load transcript: %w", err)
	}

	reported := false
	if _, err := s.profiles.GetBySession(ctx, sessionID); err == nil {
		reported = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return InterviewState{}, fmt.Errorf("lookup profile: %w", err)
	}

	return InterviewState{
		Session:    session,
		Phase:      phaseFor(len(transcript), session.Turn, s.minTurns, reported),
		Turn:       session.Turn,
		CanReport:  reported || session.Turn >= s.minTurns,
		Transcript: transcript,
	}, nil
}

// pendingAnswer indica si answer ya es la última respuesta del transcript y solo
// la siguen avisos de fallo del proveedor.
func pendingAnswer(transcript []domain.Message, answer string) bool {
	i := len(transcript) - 1
	notices := 0
	for i >= 0 && transcript[i].Role == domain.RoleSystem && transcript[i].Content == ProviderFailureNotice {
		i--
		notices++
	}
	return notices > 0 && i >= 0 && transcript[i].Role == domain.RoleUser && transcript[i].Content == answer
}

func phaseFor(messages, turn, minTurns int, reported bool) domain.InterviewPhase {
	switch {
	case reported:
		return domain.PhaseReported
	case messages == 0:
		return domain.PhaseIdle
	case turn >= minTurns:
		return domain.PhaseReadyForReport
	default:
		return domain.PhaseActive
	}
}

func (s *InterviewService) appendMessage(ctx context.Context, sessionID, role, content string) (domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("append %s message: %w", role, err)
	}
	return msg, nil
}

// pairsFromTranscript empareja cada respuesta del usuario con la última pregunta
// del entrevistador. Los mensajes de sistema no forman parte del informe.
func pairsFromTranscript(transcript []domain.Message) []domain.QuestionAnswer {
	var (
		pairs    []domain.QuestionAnswer
		question string
	)
	for _, m := range transcript {
		switch m.Role {
		case domain.RoleAssistant:
			question = m.Content
		case domain.RoleUser:
			pairs = append(pairs, domain.QuestionAnswer{
				QuestionID: int64(len(pairs) + 1),
				Question:   question,
				Answer:     m.Content,
			})
			question = ""
		}
	}
	return pairs
}
