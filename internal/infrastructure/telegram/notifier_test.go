package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsForm(t *testing.T) {
	t.Parallel()

	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		texts = append(texts, r.PostForm.Get("text"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42", nil)
	n.apiBase = srv.URL

	assert.True(t, n.Send(context.Background(), "舆情日报"))
	assert.Equal(t, []string{"舆情日报"}, texts)

	texts = nil
	assert.True(t, n.Send(context.Background(), strings.Repeat("字", maxMessageRunes+10)))
	require.Len(t, texts, 2)
	assert.Equal(t, 10, len([]rune(texts[1])))
}

func TestSendFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42", nil)
	n.apiBase = srv.URL
	assert.False(t, n.Send(context.Background(), "x"))

	assert.False(t, NewNotifier("", "42", nil).Send(context.Background(), "x"))
}
