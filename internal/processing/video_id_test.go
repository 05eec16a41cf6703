package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123", "abc123"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?feature=share&v=a_b-C9", "a_b-C9"},
		{"https://m.youtube.com/watch?v=XyZ_-09&list=PL1", "XyZ_-09"},
		{"www.youtube.com/watch?v=short", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVideoID_Invalid(t *testing.T) {
	for _, url := range []string{
		"https://example.com/notavideo",
		"",
		"https://youtu.be/abc123",
		"https://www.youtube.com/watch?v=",
		"https://www.youtube.com/watch?v=!!!",
	} {
		t.Run(url, func(t *testing.T) {
			_, err := ExtractVideoID(url)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}
