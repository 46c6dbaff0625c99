package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeImageName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain filename",
			in:   "https://cdn.example.com/files/photo.jpg",
			want: "photo.jpg",
		},
		{
			name: "query string ignored",
			in:   "https://cdn.example.com/files/photo.jpg?v=1700000000&width=800",
			want: "photo.jpg",
		},
		{
			name: "different hosts same key",
			in:   "https://other-cdn.example.org/a/b/c/photo.jpg",
			want: "photo.jpg",
		},
		{
			name: "percent-encoded space becomes _20",
			in:   "https://cdn.example.com/files/img%20one.jpg",
			want: "img_20one.jpg",
		},
		{
			name: "double-encoded segment decodes only once",
			in:   "https://cdn.example.com/files/img%2520one.jpg",
			want: "img%20one.jpg",
		},
		{
			name: "literal space becomes _20",
			in:   "https://cdn.example.com/files/img one.jpg",
			want: "img_20one.jpg",
		},
		{
			name: "bare filename without scheme",
			in:   "photo.jpg",
			want: "photo.jpg",
		},
		{
			name: "trailing slash falls back to last segment",
			in:   "https://cdn.example.com/files/",
			want: "files",
		},
		{
			name: "root path yields empty key",
			in:   "https://cdn.example.com/",
			want: "",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImageName(tt.in))
		})
	}
}

// Keys derived from an already-normalized name must not change again,
// otherwise upload alt keys and media filenames stop matching.
func TestNormalizeImageNameIdempotent(t *testing.T) {
	inputs := []string{
		"https://cdn.example.com/files/photo.jpg?v=3",
		"https://cdn.example.com/files/img%20one.jpg",
		"https://cdn.example.com/files/weird%2Bname.png",
	}
	for _, in := range inputs {
		once := NormalizeImageName(in)
		assert.Equal(t, once, NormalizeImageName(once), "input %q", in)
	}
}
