// Package live keeps the set of connected viewers and pushes rendered
// snapshots to them.
package live

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/logger"
)

// MessageTypeUpdate tags snapshot pushes.
const MessageTypeUpdate = "update"

// Conn is one viewer's push channel.
type Conn interface {
	Send(payload []byte) error
	Close() error
}

// Message is the wire format of a push.
type Message struct {
	Type string `json:"type"`
	HTML string `json:"html"`
	TOC  string `json:"toc"`
}

// Hub is the set of connected viewers. Membership changes may happen at any
// time, including from inside a broadcast; broadcasts run one at a time.
type Hub struct {
	mu    sync.Mutex
	conns map[Conn]struct{}

	broadcastMu sync.Mutex
	log         logger.Logger
}

// NewHub creates an empty Hub. A nil logger discards output.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{conns: make(map[Conn]struct{}), log: log}
}

// Register adds c. Registering a member again is a no-op.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Debug("viewer connected", "viewers", n)
}

// Unregister removes c. Removing a non-member is a no-op.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	if ok {
		h.log.Debug("viewer disconnected", "viewers", n)
	}
}

// CloseAll unregisters and closes every viewer.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[Conn]struct{})
	h.mu.Unlock()

	for c := range conns {
		_ = c.Close()
	}
	if len(conns) > 0 {
		h.log.Debug("viewers disconnected", "viewers", len(conns))
	}
}

// Len returns the number of registered viewers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends s to every viewer. The payload is encoded once and the
// same bytes go to each member. A viewer unregistered while the broadcast is
// in progress is skipped if not yet reached. A viewer whose send fails is
// unregistered and closed; sends are not retried.
// The only error is an encoding failure.
func (h *Hub) Broadcast(s mdpreview.Snapshot) error {
	payload, err := json.Marshal(Message{Type: MessageTypeUpdate, HTML: s.HTML, TOC: s.TOC})
	if err != nil {
		return fmt.Errorf("encoding update: %w", err)
	}

	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()

	sent, dropped := 0, 0
	for _, c := range h.members() {
		if !h.isMember(c) {
			continue
		}
		if err := c.Send(payload); err != nil {
			h.log.Debug("dropping viewer", "error", err)
			h.Unregister(c)
			_ = c.Close()
			dropped++
			continue
		}
		sent++
	}

	h.log.Debug("broadcast", "sent", sent, "dropped", dropped, "bytes", len(payload))
	return nil
}

func (h *Hub) members() []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) isMember(c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.conns[c]
	return ok
}
