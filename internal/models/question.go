package models

import (
	"time"

	"gorm.io/datatypes"
)

// Test is the instance a candidate runs through. Proctoring policy lives
// here and is snapshotted onto each session at start.
type Test struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Duration    int     `json:"duration" gorm:"not null" validate:"required,min=5,max=300"` // minutes

	ProctoringEnabled bool `json:"proctoring_enabled" gorm:"default:false"`
	MaxStrikesAllowed int  `json:"max_strikes_allowed" gorm:"default:2" validate:"min=0,max=10"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:TestID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// Question holds the prompt, the option list and the canonical answer.
// CorrectOption is nullable: questions without a canonical answer produce
// answers with nil correctness and contribute nothing to the raw score.
type Question struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	TestID uint `json:"test_id" gorm:"not null;index"`

	Text          string         `json:"text" gorm:"not null;type:text" validate:"required"`
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb"` // []string
	CorrectOption *int           `json:"correct_option"`
	Points        int            `json:"points" gorm:"default:1" validate:"min=0"`
	Order         int            `json:"order" gorm:"not null;default:0"`
	TimerSeconds  int            `json:"timer_seconds" gorm:"default:60"` // client-side, advisory only

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test Test `json:"test" gorm:"foreignKey:TestID"`
}

func (Question) TableName() string {
	return "questions"
}
