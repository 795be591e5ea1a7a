package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"macroIndicators/internal/backend"
)

func TestMove(t *testing.T) {
	slugs := []string{"a", "b", "c"}

	out, ok := Move(slugs, 1, Up)
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c"}, out)
	assert.Equal(t, []string{"a", "b", "c"}, slugs)

	out, ok = Move(slugs, 1, Down)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "c", "b"}, out)

	_, ok = Move(slugs, 0, Up)
	assert.False(t, ok)
	_, ok = Move(slugs, 2, Down)
	assert.False(t, ok)
	_, ok = Move(slugs, 7, Up)
	assert.False(t, ok)
}

func TestIndexOfAndOrderFor(t *testing.T) {
	slugs := []string{"gdp", "cpi"}
	assert.Equal(t, 1, IndexOf(slugs, "cpi"))
	assert.Equal(t, -1, IndexOf(slugs, "m2"))
	assert.Equal(t, []backend.OrderEntry{
		{Slug: "gdp", DisplayOrder: 0},
		{Slug: "cpi", DisplayOrder: 1},
	}, OrderFor(slugs))
}
