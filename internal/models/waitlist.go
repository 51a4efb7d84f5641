package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WaitlistEntry is one accepted sign-up. Entries are written once and never updated.
// The json tags define the on-disk layout of the file store.
type WaitlistEntry struct {
	ID                string    `gorm:"type:text;primaryKey" json:"id"`
	Name              string    `gorm:"not null" json:"name"`
	Email             string    `gorm:"not null;index" json:"email"`
	City              string    `gorm:"not null" json:"city"`
	UniversityCompany string    `json:"universityCompany,omitempty"`
	Platform          string    `gorm:"not null" json:"platform"`
	IP                string    `json:"ip,omitempty"`
	CreatedAt         time.Time `gorm:"not null;index" json:"createdAt"`
}

// AssignIdentity sets the id and creation time at write time. Values already set are kept.
// Ids are UUIDv7, so entries sharing a timestamp still sort in the order they were written.
func (e *WaitlistEntry) AssignIdentity(now time.Time) {
	if e.ID == "" {
		e.ID = newEntryID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
}

func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	e.AssignIdentity(time.Now())
	return nil
}

func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
