package models

import (
	"time"
)

// TimeWindow is an optional scheduled window an AccessLink can be bound to.
// Admission is rejected outside [StartsAt, EndsAt).
type TimeWindow struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Name     string    `json:"name" gorm:"not null;size:200"`
	StartsAt time.Time `json:"starts_at" gorm:"not null"`
	EndsAt   time.Time `json:"ends_at" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TimeWindow) TableName() string {
	return "time_windows"
}

// AccessLink is the admission policy gating session creation for one test.
// UsedCount increments exactly once per successfully created session and is
// never decremented. Links are deactivated, never deleted, while sessions
// reference them; the session side of the relation is ON DELETE SET NULL.
type AccessLink struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Token  string `json:"token" gorm:"uniqueIndex;not null;size:64"`
	TestID uint   `json:"test_id" gorm:"not null;index"`

	Active    bool       `json:"active" gorm:"default:true;index"`
	ExpiresAt *time.Time `json:"expires_at"`
	MaxUses   *int       `json:"max_uses" validate:"omitempty,min=1"`
	UsedCount int        `json:"used_count" gorm:"not null;default:0"`

	TimeWindowID *uint `json:"time_window_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test       Test        `json:"test" gorm:"foreignKey:TestID"`
	TimeWindow *TimeWindow `json:"time_window" gorm:"foreignKey:TimeWindowID"`
	Sessions   []Session   `json:"sessions" gorm:"foreignKey:AccessLinkID;constraint:OnDelete:SET NULL"`
}

func (AccessLink) TableName() string {
	return "access_links"
}

// IsExpired reports whether the link's expiry, if set, has passed.
func (l *AccessLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// IsExhausted reports whether the usage cap, if set, has been reached.
func (l *AccessLink) IsExhausted() bool {
	return l.MaxUses != nil && l.UsedCount >= *l.MaxUses
}
