package websocket

import (
	"context"
	"dm-relay/contract"
	"dm-relay/domain"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// Server upgrades HTTP requests into relay connections.
type Server struct {
	ctx        context.Context
	hub        *Hub
	dispatcher contract.IDispatcher
	decoder    *Decoder
	upgrader   websocket.Upgrader
	sinkSize   int
	readLimit  int64
	log        *slog.Logger
}

// NewServer binds connections to ctx: once it is done, inbound commands are no longer dispatched.
// origins follows ALLOWED_ORIGINS, "*" allows any origin. A frame over readLimit bytes closes its connection.
func NewServer(ctx context.Context, hub *Hub, dispatcher contract.IDispatcher,
	origins []string, sinkSize int, readLimit int64, log *slog.Logger) *Server {
	return &Server{
		ctx:        ctx,
		hub:        hub,
		dispatcher: dispatcher,
		decoder:    NewDecoder(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     CheckOrigin(origins),
		},
		sinkSize:  sinkSize,
		readLimit: readLimit,
		log:       log,
	}
}

// CheckOrigin accepts requests without an Origin header, as sent by non browser clients.
func CheckOrigin(origins []string) func(r *http.Request) bool {
	allowAll := lo.Contains(origins, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowAll || lo.Contains(origins, origin)
	}
}

func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade connection", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	id := domain.ConnectionID(uuid.NewString())
	client := NewClient(id, conn, s.hub, NewSink(s.sinkSize), s.dispatcher, s.decoder, s.readLimit, s.log)
	client.Start(s.ctx)

	s.log.Debug("New WebSocket connection established", "connection_id", id, "remote_addr", r.RemoteAddr)
}
