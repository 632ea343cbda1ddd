package domain

import "time"

// Question es una pregunta del cuestionario fijo. Answer.QuestionID apunta a ID.
type Question struct {
	ID         int64     `json:"id"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	OrderNum   int       `json:"order_num"`
	IsRequired bool      `json:"is_required"`
	CreatedAt  time.Time `json:"created_at"`
}
