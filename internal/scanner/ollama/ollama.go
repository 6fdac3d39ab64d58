package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vbonduro/jdginv/internal/scanner"
)

type OllamaDecoder struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaDecoder(host, model string) *OllamaDecoder {
	return &OllamaDecoder{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

// Decoding wants the literal payload, so sampling is pinned.
type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (d *OllamaDecoder) Decode(ctx context.Context, r io.Reader, mimeType string) (*scanner.Result, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	payload, err := json.Marshal(generateRequest{
		Model:  d.model,
		Prompt: scanner.DecodePrompt,
		Images: []string{base64.StdEncoding.EncodeToString(imageData)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", scanner.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body generateResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body.Error)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	text, err := scanner.ParseResponse(body.Response)
	if err != nil {
		return nil, err
	}
	return &scanner.Result{Payload: text, Raw: body.Response}, nil
}

// statusError reports a non-200 reply. A missing model means the backend is
// not usable until someone pulls it, so it counts as unavailable.
func statusError(code int, msg string) error {
	msg = strings.TrimSpace(msg)
	if code == http.StatusNotFound {
		if msg == "" {
			msg = "model not found"
		}
		return fmt.Errorf("%w: %s", scanner.ErrUnavailable, msg)
	}
	if msg != "" {
		return fmt.Errorf("ollama returned status %d: %s", code, msg)
	}
	return fmt.Errorf("ollama returned status %d", code)
}
