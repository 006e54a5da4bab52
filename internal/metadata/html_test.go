package metadata

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageResult_FaviconResolution(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://blog.example.com/posts/1")

	tests := []struct {
		name string
		link string
		want string
	}{
		{"Absolute", `<link rel="icon" href="https://cdn.example.com/i.png">`, "https://cdn.example.com/i.png"},
		{"Protocol Relative", `<link rel="icon" href="//cdn.example.com/i.png">`, "https://cdn.example.com/i.png"},
		{"Root Relative", `<link rel="icon" href="/i.png">`, "https://blog.example.com/i.png"},
		{"Apple Touch", `<link rel="apple-touch-icon" href="/apple.png">`, "https://blog.example.com/apple.png"},
		{"Shortcut Before Apple", `<link rel="apple-touch-icon" href="/a.png"><link rel="Shortcut  Icon" href="/s.ico">`, "https://blog.example.com/s.ico"},
		{"None", ``, "https://blog.example.com/favicon.ico"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parsePage(strings.NewReader("<html><head>" + tt.link + "</head></html>"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.result(base).Favicon)
		})
	}
}

func TestPageResult_TitlePrecedence(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://example.com")

	p, err := parsePage(strings.NewReader(`<html><head><title>Doc</title><meta name="twitter:title" content="TW"></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, "TW", p.result(base).Title)

	p, err = parsePage(strings.NewReader(`<html><head><title>
	Doc   Title
	</title></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Doc Title", p.result(base).Title)
}
