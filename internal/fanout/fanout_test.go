package fanout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	out, err := Map(context.Background(), 10, func(_ context.Context, i int) (int, error) {
		return i * i, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}, out)
}

func TestMapPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")

	_, err := Map(context.Background(), 5, func(_ context.Context, i int) (int, error) {
		if i == 3 {
			return 0, sentinel
		}
		return i, nil
	})
	require.ErrorIs(t, err, sentinel)
}

func TestMapZero(t *testing.T) {
	out, err := Map(context.Background(), 0, func(_ context.Context, i int) (int, error) {
		t.Fatal("fn should not be called for n=0")
		return 0, nil
	})
	require.NoError(t, err)
	require.Empty(t, out)
}
