package models

// MembershipSet is the set of shelf IDs that were last observed to
// contain a given edition. It is a derived view, never persisted
// client-side: scans rebuild it, toggles patch it optimistically.
type MembershipSet map[string]bool

func (m MembershipSet) Has(shelfID string) bool {
	return m[shelfID]
}

// Clone returns an independent copy so optimistic patches never leak
// into a snapshot a caller is still holding.
func (m MembershipSet) Clone() MembershipSet {
	out := make(MembershipSet, len(m))
	for id, ok := range m {
		if ok {
			out[id] = true
		}
	}
	return out
}

// CanonicalMember returns the ID of the canonical-status shelf holding
// the edition, given the user's shelves. Empty string when none does.
func (m MembershipSet) CanonicalMember(shelves []Shelf) string {
	for _, s := range shelves {
		if s.Kind.Canonical() && m[s.ID] {
			return s.ID
		}
	}
	return ""
}
