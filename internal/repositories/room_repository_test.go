package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPair(t *testing.T) {
	a, b := canonicalPair(2, 1)
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)

	a, b = canonicalPair(1, 2)
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)
}
