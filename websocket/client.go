package websocket

import (
	"context"
	"dm-relay/contract"
	"dm-relay/domain"
	"dm-relay/domain/event"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection. Its read pump feeds the dispatcher and its
// write pump drains the sink.
type Client struct {
	id         domain.ConnectionID
	conn       *websocket.Conn
	hub        *Hub
	sink       *Sink
	dispatcher contract.IDispatcher
	decoder    *Decoder
	readLimit  int64
	log        *slog.Logger
}

// NewClient closes the connection on frames larger than readLimit.
func NewClient(id domain.ConnectionID, conn *websocket.Conn, hub *Hub, sink *Sink,
	dispatcher contract.IDispatcher, decoder *Decoder, readLimit int64, log *slog.Logger) *Client {
	return &Client{
		id:         id,
		conn:       conn,
		hub:        hub,
		sink:       sink,
		dispatcher: dispatcher,
		decoder:    decoder,
		readLimit:  readLimit,
		log:        log.With("connection_id", id),
	}
}

// Start registers the client with the hub and starts both pumps.
func (c *Client) Start(ctx context.Context) {
	c.hub.Add(c.id, c.sink)
	go c.writePump()
	go c.readPump(ctx)
}

// readPump ends on read error or on an explicit disconnect frame, then hands
// the disconnect to the coordinator.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Remove(c.id)
		c.sink.Close()
		_ = c.conn.Close()
		if err := c.dispatcher.Dispatch(ctx, domain.DisconnectCommand{Connection: c.id}); err != nil {
			c.log.Debug("Disconnect not dispatched", "error", err)
		}
		c.log.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(c.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WebSocket read error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.log.Debug("Binary frame ignored")
			continue
		}
		if !c.handleFrame(ctx, message) {
			return
		}
	}
}

// handleFrame returns false when the peer asked to disconnect or the dispatcher is gone.
func (c *Client) handleFrame(ctx context.Context, message []byte) bool {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.log.Debug("Undecodable frame ignored", "error", err)
		return true
	}
	if frame.Event == event.Disconnect {
		return false
	}

	cmd, err := c.decoder.Decode(c.id, frame, c.replier(frame.Ack))
	if err != nil {
		c.log.Debug("Frame ignored", "event", frame.Event, "error", err)
		return true
	}
	if err = c.dispatcher.Dispatch(ctx, cmd); err != nil {
		c.log.Debug("Command not dispatched", "event", frame.Event, "error", err)
		return false
	}
	return true
}

// replier answers on the ack id of the request, or discards the reply when there is none.
func (c *Client) replier(ack *int64) func([]domain.Message) {
	if ack == nil {
		return nil
	}
	id := *ack
	return func(history []domain.Message) {
		c.hub.Reply(c.id, id, history)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.log.Debug("Write pump stopped")
	}()

	for {
		select {
		case frame, ok := <-c.sink.Frames():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Error("Failed to write frame", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Failed to send ping", "error", err)
				return
			}
		}
	}
}
