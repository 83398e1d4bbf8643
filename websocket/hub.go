package websocket

import (
	"dm-relay/domain"
	"dm-relay/domain/event"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// Hub tracks the sinks of live connections and implements contract.Emitter.
type Hub struct {
	mu    sync.RWMutex
	sinks map[domain.ConnectionID]*Sink
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		sinks: make(map[domain.ConnectionID]*Sink),
		log:   log,
	}
}

func (h *Hub) Add(connID domain.ConnectionID, sink *Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks[connID] = sink
}

func (h *Hub) Remove(connID domain.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sinks, connID)
}

// CloseAll closes every sink, so each write pump sends a close frame and ends its connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID, sink := range h.sinks {
		sink.Close()
		delete(h.sinks, connID)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

// EmitTo is a no-op when connID is gone.
func (h *Hub) EmitTo(connID domain.ConnectionID, name event.Name, payload any) {
	h.mu.RLock()
	sink, ok := h.sinks[connID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug("Emit to unknown connection dropped", "connection_id", connID, "event", name)
		return
	}
	frame, err := Encode(name, payload, nil)
	if err != nil {
		h.log.Error("Failed to encode frame", "event", name, "error", err)
		return
	}
	h.push(connID, sink, name, frame)
}

// Broadcast encodes payload once and pushes it to every connection but the excluded ones.
func (h *Hub) Broadcast(name event.Name, payload any, excluding ...domain.ConnectionID) {
	frame, err := Encode(name, payload, nil)
	if err != nil {
		h.log.Error("Failed to encode frame", "event", name, "error", err)
		return
	}

	h.mu.RLock()
	targets := lo.OmitByKeys(h.sinks, excluding)
	h.mu.RUnlock()

	for connID, sink := range targets {
		h.push(connID, sink, name, frame)
	}
}

// Reply answers the ack-carrying request of connID.
func (h *Hub) Reply(connID domain.ConnectionID, ack int64, payload any) {
	h.mu.RLock()
	sink, ok := h.sinks[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	frame, err := Encode(event.Ack, payload, &ack)
	if err != nil {
		h.log.Error("Failed to encode ack", "ack", ack, "error", err)
		return
	}
	h.push(connID, sink, event.Ack, frame)
}

func (h *Hub) push(connID domain.ConnectionID, sink *Sink, name event.Name, frame []byte) {
	if !sink.Push(frame) {
		h.log.Warn("Outbound frame dropped, buffer full or closed", "connection_id", connID, "event", name)
	}
}
