package retrieval

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		handle string
		want   []string
	}{
		{"abc123.png", []string{"abc123.png", "abc123"}},
		{"abc123", []string{"abc123"}},
		{".png", []string{".png"}},
		{"abc.tar.gz", []string{"abc.tar.gz", "abc.tar"}},
		{"abc.PNG", []string{"abc.PNG", "abc"}},
		{"abc.p-g", []string{"abc.p-g"}},
		{"abc.abcdefghijk", []string{"abc.abcdefghijk"}},
		{"abc.", []string{"abc."}},
		{"AgAD_x-Y.webp", []string{"AgAD_x-Y.webp", "AgAD_x-Y"}},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.handle))
		})
	}
}

func TestOrigin(t *testing.T) {
	t.Run("PublicURL", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://internal:8080/file/x", nil)
		assert.Equal(t, "https://img.example.com", Origin(r, "https://img.example.com/"))
	})

	t.Run("FromRequest", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://img.local:8080/file/x", nil)
		assert.Equal(t, "http://img.local:8080", Origin(r, ""))
	})

	t.Run("ForwardedHeaders", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://internal/file/x", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		r.Header.Set("X-Forwarded-Host", "img.example.com")
		assert.Equal(t, "https://img.example.com", Origin(r, ""))
	})
}
