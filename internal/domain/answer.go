package domain

import "time"

// Answer es la respuesta a una pregunta fija del cuestionario.
// (SessionID, QuestionID) es único: guardar de nuevo sobrescribe Content.
type Answer struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	QuestionID int64     `json:"question_id"`
	Content    string    `json:"content"`
	OwnerID    string    `json:"owner_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuestionAnswer es un par pregunta/respuesta usado para generar el perfil.
type QuestionAnswer struct {
	QuestionID int64  `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}
