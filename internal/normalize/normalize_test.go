package normalize_test

import (
	"testing"

	"github.com/echotab/echotab-server/internal/normalize"
	"github.com/stretchr/testify/assert"
)

func TestTagName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  Work  ", "work"},
		{"case folds", "WORK", "work"},
		{"unicode fold", "Straße", "strasse"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.TagName(tt.in))
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"strips utm params",
			"https://a.com/page?utm_source=x&utm_medium=y&q=1",
			"https://a.com/page?q=1",
		},
		{
			"strips fbclid",
			"https://a.com/page?fbclid=abc123",
			"https://a.com/page",
		},
		{
			"strips fragment",
			"https://a.com/page#section",
			"https://a.com/page",
		},
		{
			"keeps real params",
			"https://a.com/search?q=golang&page=2",
			"https://a.com/search?page=2&q=golang",
		},
		{
			"bare root slash dropped",
			"https://a.com/?utm_source=x",
			"https://a.com",
		},
		{
			"untouched without tracking",
			"https://a.com/path",
			"https://a.com/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.CanonicalURL(tt.in))
		})
	}
}

func TestCanonicalURL_SamePageMatches(t *testing.T) {
	a := normalize.CanonicalURL("https://a.com?utm_source=newsletter")
	b := normalize.CanonicalURL("https://a.com")
	assert.Equal(t, a, b)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", normalize.Domain("https://www.example.com/x"))
	assert.Equal(t, "example.com", normalize.Domain("https://example.com"))
	assert.Equal(t, "sub.example.com", normalize.Domain("http://sub.example.com/p?q=1"))
	assert.Equal(t, "", normalize.Domain("::not a url::"))
}
