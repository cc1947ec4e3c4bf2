package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionTracker_ExcludedEmptyForUnknownSession(t *testing.T) {
	tr := NewSessionTracker()
	assert.Empty(t, tr.Excluded("nope"))
}

func TestSessionTracker_RecordThenExcluded(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("s1", []int64{1, 2, 3})
	tr.Record("s1", []int64{3, 4})

	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, tr.Excluded("s1"))
	assert.Empty(t, tr.Excluded("s2"))
}

func TestSessionTracker_RecordIgnoresEmptySessionOrIDs(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("", []int64{1})
	tr.Record("s1", nil)

	assert.Empty(t, tr.Excluded(""))
	assert.Empty(t, tr.Excluded("s1"))
}

func TestSessionTracker_Reset(t *testing.T) {
	tr := NewSessionTracker()
	tr.Record("s1", []int64{1})

	assert.True(t, tr.Reset("s1"))
	assert.False(t, tr.Reset("s1"))
	assert.Empty(t, tr.Excluded("s1"))
}
