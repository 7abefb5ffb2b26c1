package reader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iTrooz/news-reader/internal/news"
)

func TestConsole_ShowContentState(t *testing.T) {
	var out bytes.Buffer
	view := NewConsole(&out)

	view.ShowContentState([]news.Post{
		{ID: 1, Title: "First", Body: "Hello"},
		{ID: 2, Title: "Second", Body: "World"},
	})

	text := out.String()
	assert.Contains(t, text, "First")
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "Second")
	assert.Contains(t, text, "World")
	assert.Less(t, strings.Index(text, "First"), strings.Index(text, "Second"))
	assert.NotContains(t, text, EmptyMessage)
}

func TestConsole_ShowContentStateEmpty(t *testing.T) {
	var out bytes.Buffer
	view := NewConsole(&out)

	view.ShowContentState(nil)
	assert.Contains(t, out.String(), EmptyMessage)
}

func TestConsole_SanitizesPosts(t *testing.T) {
	var out bytes.Buffer
	view := NewConsole(&out)

	view.ShowContentState([]news.Post{{ID: 1, Title: "\x1b[2JTitle", Body: "line one\nline two"}})

	text := out.String()
	assert.NotContains(t, text, "\x1b[2J")
	assert.Contains(t, text, "[2JTitle")
	assert.Contains(t, text, "line one line two")
}

func TestConsole_ModalError(t *testing.T) {
	var out bytes.Buffer
	view := NewConsole(&out)

	// Nothing to hide yet
	view.HideModalError()
	assert.Empty(t, out.String())

	view.ShowModalError()
	assert.Contains(t, out.String(), "Unable to load news")

	view.HideModalError()
	assert.Contains(t, out.String(), "Connection restored")

	out.Reset()
	view.HideModalError()
	assert.Empty(t, out.String())
}

func TestConsole_ShowLoadingState(t *testing.T) {
	var out bytes.Buffer
	view := NewConsole(&out)

	view.ShowLoadingState()
	assert.Contains(t, out.String(), "Loading news...")
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"tab\there", "tab here"},
		{"bell\a", "bell"},
		{"crlf\r\n", "crlf  "},
		{"unicode é", "unicode é"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitize(tt.in))
	}
}
