package sync

import "time"

// Event types broadcast to subscribed views.
const (
	EventShelfAdd      = "shelf.add"
	EventShelfRemove   = "shelf.remove"
	EventProgressWrite = "progress.update"
)

// ShelfEvent reports one membership mutation as the server applied it.
type ShelfEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	ShelfID   string    `json:"shelf_id"`
	EditionID string    `json:"edition_id"`
	At        time.Time `json:"at"`
}

// ProgressEvent reports one reading-progress write.
type ProgressEvent struct {
	Type        string    `json:"type"`
	UserID      string    `json:"user_id"`
	ClubID      string    `json:"club_id"`
	EditionID   string    `json:"edition_id"`
	Status      string    `json:"status"`
	CurrentPage int       `json:"current_page"`
	At          time.Time `json:"at"`
}
