package category

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountMatchesDefinedCategories(t *testing.T) {
	require.Equal(t, 15, Count)
	require.Equal(t, Category(14), JT4)
}

func TestStrideTable(t *testing.T) {
	cases := []struct {
		cat    Category
		stride int
		numeric bool
	}{
		{Other, 0, false},
		{Code, 0, false},
		{Str, 0, false},
		{EH, 0, false},
		{S2, 2, true},
		{S4, 4, true},
		{JT4, 4, true},
		{S8, 8, true},
		{RelR8, 8, true},
		{S16, 16, true},
		{Rel16, 16, true},
		{Dynamic16, 16, true},
		{S24, 24, true},
		{Rela24, 24, true},
		{Sym24, 24, true},
	}

	for _, c := range cases {
		stride, ok := c.cat.Stride()
		require.Equal(t, c.numeric, ok, c.cat.String())
		require.Equal(t, c.stride, stride, c.cat.String())
	}
}

func TestValid(t *testing.T) {
	require.True(t, Other.Valid())
	require.True(t, JT4.Valid())
	require.False(t, Category(15).Valid())
}

func TestStringCoversEveryCategory(t *testing.T) {
	for c := Category(0); c < Count; c++ {
		require.NotEqual(t, "UNKNOWN", c.String())
	}
	require.Equal(t, "UNKNOWN", Category(15).String())
}
