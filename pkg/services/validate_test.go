package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLimitOffset(t *testing.T) {
	assert.NoError(t, validateLimitOffset(24, 0))
	assert.NoError(t, validateLimitOffset(0, 0))
	assert.NoError(t, validateLimitOffset(100, 500))

	assert.Error(t, validateLimitOffset(101, 0))
	assert.Error(t, validateLimitOffset(-1, 0))
	assert.Error(t, validateLimitOffset(24, -1))
}

func TestRankScore(t *testing.T) {
	assert.Equal(t, 1.0, rankScore(0, 1))
	assert.Equal(t, 1.0, rankScore(0, 0))
	assert.Equal(t, 0.5, rankScore(1, 2))
	assert.InDelta(t, 0.75, rankScore(1, 4), 1e-9)
}
