package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

// streamSSE relays a query's synthesis event channel to the client as
// server-sent events, one "content" event per token and a terminal
// "complete" or "error" event carrying the full payload.
func streamSSE(w http.ResponseWriter, r *http.Request, events <-chan domain.SynthesisEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeSSEEvent(w, ev)
			flusher.Flush()
			if ev.Kind == domain.SynthesisComplete || ev.Kind == domain.SynthesisError {
				return
			}
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev domain.SynthesisEvent) {
	switch ev.Kind {
	case domain.SynthesisContent:
		payload, _ := json.Marshal(map[string]string{"text": ev.Text})
		fmt.Fprintf(w, "event: content\ndata: %s\n\n", payload)
	case domain.SynthesisComplete:
		payload, _ := json.Marshal(ev.Complete)
		fmt.Fprintf(w, "event: complete\ndata: %s\n\n", payload)
	case domain.SynthesisError:
		payload, _ := json.Marshal(map[string]string{"error": ev.Err.Error()})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
	}
}
