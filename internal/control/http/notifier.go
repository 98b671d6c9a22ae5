package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// event is a real-time notification pushed to /events subscribers: image
// and message lifecycle changes, and emergency transitions.
type event struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data,omitempty"`
}

// notifier fans out events to any number of Server-Sent-Events subscribers.
// No example repo in the reference corpus imports a websocket library, so
// the real-time channel is built on net/http's flusher support instead —
// SSE needs nothing beyond the standard library's http.ResponseWriter and
// stays consistent with the rest of the control surface's plain-HTTP style.
type notifier struct {
	mu   sync.Mutex
	subs map[chan event]struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[chan event]struct{})}
}

func (n *notifier) subscribe() chan event {
	ch := make(chan event, 8)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan event) {
	n.mu.Lock()
	delete(n.subs, ch)
	n.mu.Unlock()
	close(ch)
}

func (n *notifier) publish(e event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- e:
		default:
			// Slow subscriber: drop rather than block publish, same
			// best-effort contract as the PAD sink's "never block more
			// than one tick" rule.
		}
	}
}

// handleEvents streams events as Server-Sent-Events until the client
// disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.notify.subscribe()
	defer s.notify.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			buf, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, buf)
			flusher.Flush()
		}
	}
}
