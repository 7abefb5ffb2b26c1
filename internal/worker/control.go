package worker

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StoresResponse is returned by GET /stores
type StoresResponse struct {
	Current string   `json:"current"`
	Stores  []string `json:"stores"`
}

// ControlHandler exposes the event stream and store listing
func (s *Server) ControlHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/stores", s.handleStores)
	r.Get("/events", s.handleEvents)
	return r
}

func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	names, err := s.storage.Names(r.Context())
	if err != nil {
		s.logger.Errorf("Failed to list stores: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(StoresResponse{Current: s.config.Generation, Stores: names}); err != nil {
		s.logger.Errorf("Failed to write stores response: %v", err)
	}
}

// handleEvents streams FETCH_INTERCEPTED messages as server-sent events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	messages, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Errorf("Failed to encode message: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
