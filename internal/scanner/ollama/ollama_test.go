package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/jdginv/internal/scanner"
)

func TestOllamaDecode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "moondream", req.Model)
		assert.False(t, req.Stream)
		assert.Len(t, req.Images, 1)
		assert.Zero(t, req.Options.Temperature)

		resp := map[string]any{
			"model":    req.Model,
			"response": " ```\nhttps://example.com/item/7\n``` ",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	decoder := NewOllamaDecoder(server.URL, "moondream")
	result, err := decoder.Decode(context.Background(), bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0xE0}), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/item/7", result.Payload)
}

func TestOllamaDecodeNoCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "NONE"})
	}))
	defer server.Close()

	_, err := NewOllamaDecoder(server.URL, "moondream").Decode(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	assert.ErrorIs(t, err, scanner.ErrNoCode)
}

func TestOllamaDecodeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewOllamaDecoder(server.URL, "moondream").Decode(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, scanner.ErrUnavailable)
}

func TestOllamaDecodeErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "image too large"})
	}))
	defer server.Close()

	_, err := NewOllamaDecoder(server.URL, "moondream").Decode(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image too large")
}

func TestOllamaDecodeModelMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'moondream' not found"})
	}))
	defer server.Close()

	_, err := NewOllamaDecoder(server.URL, "moondream").Decode(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	assert.ErrorIs(t, err, scanner.ErrUnavailable)
}

func TestOllamaDecodeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewOllamaDecoder(url, "moondream").Decode(context.Background(), bytes.NewReader([]byte{0xFF}), "image/jpeg")
	assert.ErrorIs(t, err, scanner.ErrUnavailable)
}
