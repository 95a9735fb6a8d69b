package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rigrename/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// event is one completed operation as seen by feed subscribers.
type event struct {
	ID      string             `json:"id"`
	Time    time.Time          `json:"time"`
	Op      string             `json:"op"`
	Kind    string             `json:"kind"`
	Preset  string             `json:"preset,omitempty"`
	Objects []string           `json:"objects"`
	Report  engine.BatchReport `json:"report"`
}

// hub fans completed operations out to every connected subscriber. A
// subscriber that cannot keep up loses events; operations never wait on
// the feed.
type hub struct {
	mu   sync.Mutex
	subs map[chan event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan event]struct{})}
}

func (hb *hub) subscribe() chan event {
	ch := make(chan event, 16)
	hb.mu.Lock()
	hb.subs[ch] = struct{}{}
	hb.mu.Unlock()
	return ch
}

func (hb *hub) unsubscribe(ch chan event) {
	hb.mu.Lock()
	delete(hb.subs, ch)
	hb.mu.Unlock()
}

func (hb *hub) broadcast(e event) {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	for ch := range hb.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// handleEvents upgrades the connection and streams operation events to the
// client as JSON messages until it hangs up.
func (h *handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := h.events.subscribe()
	defer h.events.unsubscribe(ch)

	// The client sends nothing meaningful, but reading is the only way to
	// notice it hanging up.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// All writes happen here — gorilla/websocket forbids concurrent writers.
	for {
		select {
		case e := <-ch:
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-disconnected:
			return
		}
	}
}
