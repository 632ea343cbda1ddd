package domain

import "time"

// Session es una instancia de entrevista. El id lo aporta el cliente o se genera
// al iniciar; Turn es el contador de turnos del orquestador.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Turn      int       `json:"turn"`
	CreatedAt time.Time `json:"created_at"`
}

// InterviewPhase es el estado derivado de una sesión.
type InterviewPhase string

const (
	PhaseIdle           InterviewPhase = "idle"
	PhaseActive         InterviewPhase = "active"
	PhaseReadyForReport InterviewPhase = "ready_for_report"
	PhaseReported       InterviewPhase = "reported"
)
