package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatInteraction struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Query         string    `gorm:"not null" json:"query"`
	Response      string    `gorm:"not null" json:"response"`
	Feedback      *int      `json:"feedback,omitempty"`
	InteractionAt time.Time `gorm:"index" json:"interaction_at"`
}

func (ci *ChatInteraction) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	if ci.InteractionAt.IsZero() {
		ci.InteractionAt = time.Now().UTC()
	}
	return nil
}
