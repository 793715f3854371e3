package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShelfKindCanonical(t *testing.T) {
	assert.True(t, KindWantToRead.Canonical())
	assert.True(t, KindReading.Canonical())
	assert.True(t, KindRead.Canonical())
	assert.False(t, KindOwned.Canonical())
	assert.False(t, KindCustom.Canonical())
}

func TestParseShelfKind(t *testing.T) {
	assert.Equal(t, KindWantToRead, ParseShelfKind("Want-To-Read"))
	assert.Equal(t, KindWantToRead, ParseShelfKind("wtr"))
	assert.Equal(t, KindReading, ParseShelfKind(" reading "))
	assert.Equal(t, ShelfKind(""), ParseShelfKind("bogus"))
}

func TestParseReadingStatus(t *testing.T) {
	assert.Equal(t, StatusNotStarted, ParseReadingStatus("not-started"))
	assert.Equal(t, StatusOnHold, ParseReadingStatus("paused"))
	assert.Equal(t, StatusCompleted, ParseReadingStatus("FINISHED"))
	assert.Equal(t, ReadingStatus(""), ParseReadingStatus("bogus"))
}

func TestMembershipSet(t *testing.T) {
	shelves := []Shelf{
		{ID: "wtr", Kind: KindWantToRead},
		{ID: "rdg", Kind: KindReading},
		{ID: "own", Kind: KindOwned},
	}

	m := MembershipSet{"wtr": true, "own": true}
	assert.Equal(t, "wtr", m.CanonicalMember(shelves))

	clone := m.Clone()
	clone["rdg"] = true
	assert.False(t, m.Has("rdg"), "clone must be independent")

	empty := MembershipSet{"own": true}
	assert.Equal(t, "", empty.CanonicalMember(shelves))
}
