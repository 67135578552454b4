package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jwhan-dev/robofleet/core/notify"
)

var errObserverGone = errors.New("events: observer buffer full")

// chanObserver bridges hub broadcasts into a per-connection channel. Send
// never blocks; a full buffer means the client stopped reading and the hub
// drops the observer.
type chanObserver struct {
	ch chan notify.Snapshot
}

func (o *chanObserver) Send(s notify.Snapshot) error {
	select {
	case o.ch <- s:
		return nil
	default:
		return errObserverGone
	}
}

// NewHandler returns an HTTP handler streaming state snapshots as
// server-sent events via GET /api/events.
func NewHandler(hub *notify.Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		obs := &chanObserver{ch: make(chan notify.Snapshot, 64)}
		id := hub.Attach(obs)
		defer hub.Detach(id)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case snap := <-obs.ch:
				data, err := json.Marshal(snap)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", snap.Kind, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	})
}
