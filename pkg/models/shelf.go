package models

import "strings"

// ShelfKind tags a shelf with its role in the reading workflow.
// The three reading-status kinds are mutually exclusive per edition;
// Owned and Custom shelves carry no such rule.
type ShelfKind string

const (
	KindWantToRead ShelfKind = "want_to_read"
	KindReading    ShelfKind = "reading"
	KindRead       ShelfKind = "read"
	KindOwned      ShelfKind = "owned"
	KindCustom     ShelfKind = "custom"
)

// Canonical reports whether the kind is one of the three reading-status
// kinds that are mutually exclusive for a given edition.
func (k ShelfKind) Canonical() bool {
	return k == KindWantToRead || k == KindReading || k == KindRead
}

// ParseShelfKind normalizes user/remote input to a ShelfKind.
// Returns "" for anything it does not recognize.
func ParseShelfKind(s string) ShelfKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "want_to_read", "want-to-read", "wanttoread", "wtr":
		return KindWantToRead
	case "reading":
		return KindReading
	case "read":
		return KindRead
	case "owned":
		return KindOwned
	case "custom":
		return KindCustom
	default:
		return ""
	}
}

type Shelf struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    ShelfKind `json:"kind"`
	Private bool      `json:"private"`
}
