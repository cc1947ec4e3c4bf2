package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinErrors_Empty(t *testing.T) {
	assert.Empty(t, joinErrors(nil))
}

func TestJoinErrors_Single(t *testing.T) {
	assert.Equal(t, "boom", joinErrors([]string{"boom"}))
}

func TestJoinErrors_Multiple(t *testing.T) {
	assert.Equal(t, "a; b; c", joinErrors([]string{"a", "b", "c"}))
}
