package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventImpact is an opaque structured payload attached to a market
// event. No schema is enforced beyond being JSON-serializable.
type EventImpact map[string]interface{}

func (e EventImpact) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

func (e *EventImpact) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported impact column type %T", value)
	}
	return json.Unmarshal(raw, e)
}

type MarketEvent struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	EventType   string      `gorm:"not null" json:"event_type"`
	Description string      `json:"description"`
	Impact      EventImpact `gorm:"type:jsonb" json:"impact,omitempty"`
	EventDate   time.Time   `gorm:"index" json:"event_date"`
}

func (m *MarketEvent) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.EventDate.IsZero() {
		m.EventDate = time.Now().UTC()
	}
	return nil
}
