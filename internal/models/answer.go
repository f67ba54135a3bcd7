package models

import (
	"time"
)

// Answer is one candidate response to one question within one session.
// The (session_id, question_id) unique index is the idempotency contract:
// a resubmission updates the existing row, never creates a duplicate.
type Answer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	SessionID  uint `json:"session_id" gorm:"not null;uniqueIndex:idx_answers_session_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answers_session_question"`

	SelectedIndex int `json:"selected_index" gorm:"not null"`

	// Derived at write time from the question's canonical answer and stored
	// denormalized so scoring never re-joins to mutable question content.
	// Nil when the question has no canonical answer.
	IsCorrect *bool `json:"is_correct"`

	TimeTakenSeconds int       `json:"time_taken_seconds"`
	SubmittedAt      time.Time `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Session  Session  `json:"session" gorm:"foreignKey:SessionID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (Answer) TableName() string {
	return "answers"
}
