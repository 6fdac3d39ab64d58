package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vbonduro/jdginv/internal/session"
)

const keepAliveInterval = 25 * time.Second

type changeEvent struct {
	Items  int  `json:"items"`
	Report bool `json:"report"`
	Log    int  `json:"log"`
}

// handleInventoryEvents streams a "change" event every time the inventory
// changes, starting with the current state. Clients re-fetch what they show.
func (s *Server) handleInventoryEvents(w http.ResponseWriter, r *http.Request, _ string, _ session.State) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	changes := s.inventory.Subscribe(r.Context())
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
		case snap, open := <-changes:
			if !open {
				return
			}
			data, err := json.Marshal(changeEvent{Items: len(snap.Items), Report: snap.Report != nil, Log: len(snap.Log)})
			if err != nil {
				s.logger.Error("encode change event failed", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}
