package scanner

import (
	"context"
	"errors"
	"io"
)

// DecodePrompt is the shared prompt used by all model-backed decoders.
const DecodePrompt = `This image is a single camera frame that may contain a QR code or a barcode.
If it does, reply with only the exact text encoded in the code and nothing else.
If there is no readable code, reply with NONE.`

var (
	ErrNoCode      = errors.New("no readable code in frame")
	ErrUnavailable = errors.New("scanner unavailable")
)

// Decoder extracts the payload of a QR code or barcode from one camera frame.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader, mimeType string) (*Result, error)
}

type Result struct {
	Payload string
	Raw     string
}

// Disabled is the decoder used when no backend is configured.
type Disabled struct{}

func (Disabled) Decode(context.Context, io.Reader, string) (*Result, error) {
	return nil, ErrUnavailable
}
