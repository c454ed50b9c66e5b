package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Open Spotify.", "open spotify"},
		{"  Hello,   Stofix!  ", "hello, stofix"},
		{"john at example dot com", "john at example dot com"},
		{"John@example.com.", "john@example.com"},
		{"[BLANK_AUDIO]", ""},
		{"(wind blowing) notepad", "notepad"},
		{".com", ".com"},
		{".com.", ".com"},
		{"\"Dot com.\"", "dot com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func newTestCloud(t *testing.T, handler http.HandlerFunc) *Cloud {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return NewCloud(client, CloudOptions{Language: "en"})
}

func TestCloud_Recognize(t *testing.T) {
	t.Parallel()

	var gotPath, gotModel string
	var gotFile int

	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotModel = r.FormValue("model")
		f, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		b, _ := io.ReadAll(f)
		gotFile = len(b)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"Open Notepad."}`)
	})

	text, err := c.Recognize(context.Background(), make([]float32, 1600))
	require.NoError(t, err)
	assert.Equal(t, "open notepad", text)
	assert.True(t, strings.HasSuffix(gotPath, "/audio/transcriptions"))
	assert.Equal(t, "whisper-1", gotModel)
	assert.Greater(t, gotFile, 44)
}

func TestCloud_EmptyTranscriptIsUnknown(t *testing.T) {
	t.Parallel()

	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"  "}`)
	})

	_, err := c.Recognize(context.Background(), make([]float32, 1600))
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestCloud_ServiceFailure(t *testing.T) {
	t.Parallel()

	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream"}}`)
	})

	_, err := c.Recognize(context.Background(), make([]float32, 1600))
	assert.ErrorIs(t, err, ErrRequest)
}

func TestCloud_NoAudio(t *testing.T) {
	t.Parallel()

	c := NewCloud(openai.NewClient(option.WithAPIKey("test")), CloudOptions{})
	_, err := c.Recognize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnknownValue)
}
