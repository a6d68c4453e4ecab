package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Webinar struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID    uuid.UUID `gorm:"type:uuid;index;not null" json:"instructor_id"`
	Topic           string    `gorm:"not null" json:"topic"`
	Description     string    `json:"description"`
	ScheduledAt     time.Time `gorm:"index;not null" json:"scheduled_at"`
	DurationMinutes int       `gorm:"not null;default:60" json:"duration_minutes"`
	RecordingURL    string    `json:"recording_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (w *Webinar) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
