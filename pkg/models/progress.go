package models

import (
	"strings"
	"time"
)

// ReadingStatus is the per-club reading state for one edition.
type ReadingStatus string

const (
	StatusNotStarted ReadingStatus = "not_started"
	StatusReading    ReadingStatus = "reading"
	StatusOnHold     ReadingStatus = "on_hold"
	StatusCompleted  ReadingStatus = "completed"
)

// ParseReadingStatus normalizes input to a ReadingStatus, "" if unknown.
func ParseReadingStatus(s string) ReadingStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not_started", "not-started", "notstarted":
		return StatusNotStarted
	case "reading":
		return StatusReading
	case "on_hold", "on-hold", "onhold", "paused":
		return StatusOnHold
	case "completed", "complete", "finished":
		return StatusCompleted
	default:
		return ""
	}
}

type ReadingProgress struct {
	ClubID      string        `json:"club_id"`
	EditionID   string        `json:"edition_id"`
	UserID      string        `json:"user_id,omitempty"`
	Status      ReadingStatus `json:"status"`
	CurrentPage int           `json:"current_page"`
	TotalPages  *int          `json:"total_pages,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
