package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/jdginv/internal/scanner"
)

func newTestServer(t *testing.T, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content": []map[string]any{
				{"type": "text", "text": reply},
			},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 3},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func TestClaudeDecode(t *testing.T) {
	server, captured := newTestServer(t, "\"ITEM-42\"")

	decoder := NewClaudeDecoder("sk-test", "claude-test", anthropic.WithBaseURL(server.URL))
	result, err := decoder.Decode(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8}), "image/heic")
	require.NoError(t, err)
	assert.Equal(t, "ITEM-42", result.Payload)
	assert.Equal(t, "\"ITEM-42\"", result.Raw)

	assert.Equal(t, "claude-test", (*captured)["model"])
	msgs := (*captured)["messages"].([]any)
	require.Len(t, msgs, 1)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	source := content[0].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "image/jpeg", source["media_type"])
	assert.Equal(t, scanner.DecodePrompt, content[1].(map[string]any)["text"])
}

func TestClaudeDecodeNoCode(t *testing.T) {
	server, _ := newTestServer(t, "NONE")

	decoder := NewClaudeDecoder("sk-test", "claude-test", anthropic.WithBaseURL(server.URL))
	_, err := decoder.Decode(context.Background(), bytes.NewReader([]byte{0xFF}), "image/png")
	assert.ErrorIs(t, err, scanner.ErrNoCode)
}

func TestClaudeDecodeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	decoder := NewClaudeDecoder("sk-test", "claude-test", anthropic.WithBaseURL(server.URL))
	_, err := decoder.Decode(context.Background(), bytes.NewReader([]byte{0xFF}), "image/png")
	assert.Error(t, err)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestClaudeDecodeReadError(t *testing.T) {
	decoder := NewClaudeDecoder("sk-test", "claude-test")
	_, err := decoder.Decode(context.Background(), errReader{}, "image/png")
	assert.Error(t, err)
}

func TestNormaliseMIME(t *testing.T) {
	assert.Equal(t, "image/png", normaliseMIME("image/png"))
	assert.Equal(t, "image/webp", normaliseMIME("image/webp"))
	assert.Equal(t, "image/jpeg", normaliseMIME("image/heic"))
}
