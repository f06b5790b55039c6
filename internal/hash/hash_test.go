package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum64(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint64
	}{
		{"empty", []byte(""), 0xef46db3751d8e999},
		{"short", []byte("test"), 0x4fdcca5ddb678139},
		{"long", []byte("this is a longer test string to hash"), 0x69275f7f7ee59dbd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sum64(tt.data))
		})
	}
}

func TestSum64DiffersOnDifferentInput(t *testing.T) {
	assert.NotEqual(t, Sum64([]byte("a")), Sum64([]byte("b")))
}
