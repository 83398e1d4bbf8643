package websocket

import (
	"dm-relay/domain"
	"dm-relay/domain/event"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, sink *Sink) []Frame {
	var frames []Frame
	for {
		select {
		case raw := <-sink.Frames():
			var frame Frame
			require.NoError(t, json.Unmarshal(raw, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func TestHub_EmitTo(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default())
	alice, bob := NewSink(4), NewSink(4)
	hub.Add("c1", alice)
	hub.Add("c2", bob)

	hub.EmitTo("c2", event.UserTyping, "alice")
	hub.EmitTo("unknown", event.UserTyping, "alice")

	req.Empty(drain(t, alice))
	frames := drain(t, bob)
	req.Len(frames, 1)
	req.Equal(event.UserTyping, frames[0].Event)
	req.JSONEq(`"alice"`, string(frames[0].Data))
}

func TestHub_Broadcast_Excludes(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default())
	sinks := map[domain.ConnectionID]*Sink{"c1": NewSink(4), "c2": NewSink(4), "c3": NewSink(4)}
	for connID, sink := range sinks {
		hub.Add(connID, sink)
	}

	// When c1 leaves and the others are told
	hub.Broadcast(event.UserDisconnected, "alice", "c1")

	req.Empty(drain(t, sinks["c1"]))
	req.Len(drain(t, sinks["c2"]), 1)
	req.Len(drain(t, sinks["c3"]), 1)
}

func TestHub_Reply(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default())
	sink := NewSink(4)
	hub.Add("c1", sink)

	hub.Reply("c1", 42, []domain.Message{})

	frames := drain(t, sink)
	req.Len(frames, 1)
	req.Equal(event.Ack, frames[0].Event)
	req.Equal(int64(42), *frames[0].Ack)
	req.JSONEq(`[]`, string(frames[0].Data))
}

func TestHub_Full_Or_Removed_Sink_Drops_Frames(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default())
	sink := NewSink(1)
	hub.Add("c1", sink)

	// Given a full sink, extra frames are dropped without blocking
	hub.EmitTo("c1", event.UserTyping, "bob")
	hub.EmitTo("c1", event.UserStoppedTyping, "bob")
	frames := drain(t, sink)
	req.Len(frames, 1)
	req.Equal(event.UserTyping, frames[0].Event)

	// Given a removed connection, nothing reaches it anymore
	hub.Remove("c1")
	sink.Close()
	hub.EmitTo("c1", event.UserTyping, "bob")
	req.False(sink.Push([]byte("late")))
	req.Zero(hub.Len())
}

func TestHub_CloseAll(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.Default())
	alice, bob := NewSink(4), NewSink(4)
	hub.Add("c1", alice)
	hub.Add("c2", bob)

	// When the relay shuts down
	hub.CloseAll()

	// Then every sink is closed and forgotten
	req.Zero(hub.Len())
	for _, sink := range []*Sink{alice, bob} {
		_, open := <-sink.Frames()
		req.False(open)
		req.False(sink.Push([]byte(`{}`)))
	}
	hub.EmitTo("c1", event.UserTyping, "bob")
}
