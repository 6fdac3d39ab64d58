package store

import (
	"context"
	"log/slog"
)

// decodeStream converts raw document snapshots into typed ones. Snapshots that
// fail to decode are logged and skipped; the output closes with the input.
func decodeStream[T any](ctx context.Context, in <-chan []Document, decode func([]Document) (T, error)) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		for docs := range in {
			v, err := decode(docs)
			if err != nil {
				slog.Error("failed to decode watched snapshot", "error", err)
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
