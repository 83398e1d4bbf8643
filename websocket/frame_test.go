package websocket

import (
	"dm-relay/domain"
	"dm-relay/domain/event"
	"dm-relay/errors"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) (domain.Command, error) {
	var frame Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &frame))
	return NewDecoder().Decode("c1", frame, nil)
}

func TestDecoder_Decode(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected domain.Command
	}{
		{
			name:     "register",
			raw:      `{"event":"register","data":"alice"}`,
			expected: domain.RegisterCommand{Connection: "c1", Username: "alice"},
		},
		{
			name:     "register without data keeps the username empty",
			raw:      `{"event":"register"}`,
			expected: domain.RegisterCommand{Connection: "c1", Username: ""},
		},
		{
			name:     "register with null keeps the username empty",
			raw:      `{"event":"register","data":null}`,
			expected: domain.RegisterCommand{Connection: "c1", Username: ""},
		},
		{
			name:     "private message",
			raw:      `{"event":"privateMessage","data":{"to":"bob","from":"alice","message":"hi"}}`,
			expected: domain.PrivateMessageCommand{Connection: "c1", To: "bob", From: "alice", Content: "hi"},
		},
		{
			name:     "mark as read",
			raw:      `{"event":"markAsRead","data":{"sender":"alice","receiver":"bob"}}`,
			expected: domain.MarkAsReadCommand{Connection: "c1", Sender: "alice", Receiver: "bob"},
		},
		{
			name:     "typing",
			raw:      `{"event":"typing","data":{"to":"bob","from":"alice"}}`,
			expected: domain.TypingCommand{Connection: "c1", To: "bob", From: "alice"},
		},
		{
			name:     "stop typing",
			raw:      `{"event":"stopTyping","data":{"to":"bob","from":"alice"}}`,
			expected: domain.TypingCommand{Connection: "c1", To: "bob", From: "alice", Stopped: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := decode(t, tc.raw)
			req.NoError(err)
			req.Equal(tc.expected, cmd)
		})
	}
}

func TestDecoder_Decode_ChatHistory_Carries_Reply(t *testing.T) {
	req := require.New(t)
	var frame Frame
	req.NoError(json.Unmarshal([]byte(`{"event":"getChatHistory","data":{"withUser":"bob","currentUser":"alice"},"ack":7}`), &frame))
	req.NotNil(frame.Ack)
	req.Equal(int64(7), *frame.Ack)

	replied := false
	cmd, err := NewDecoder().Decode("c1", frame, func([]domain.Message) { replied = true })
	req.NoError(err)

	history, ok := cmd.(domain.GetChatHistoryCommand)
	req.True(ok)
	req.Equal("bob", history.WithUser)
	req.Equal("alice", history.CurrentUser)
	history.Reply(nil)
	req.True(replied)
}

func TestDecoder_Decode_Rejects(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected error
	}{
		{name: "register with an object", raw: `{"event":"register","data":{"name":"alice"}}`, expected: errors.ErrInvalidPayload},
		{name: "register with a number", raw: `{"event":"register","data":42}`, expected: errors.ErrInvalidPayload},
		{name: "unknown event", raw: `{"event":"shout","data":"hi"}`, expected: errors.ErrUnknownEvent},
		{name: "missing recipient", raw: `{"event":"privateMessage","data":{"from":"alice","message":"hi"}}`, expected: errors.ErrInvalidPayload},
		{name: "wrong payload type", raw: `{"event":"markAsRead","data":"alice"}`, expected: errors.ErrInvalidPayload},
		{name: "missing payload", raw: `{"event":"typing"}`, expected: errors.ErrInvalidPayload},
		{name: "missing history partner", raw: `{"event":"getChatHistory","data":{"currentUser":"alice"}}`, expected: errors.ErrInvalidPayload},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := decode(t, tc.raw)
			req.ErrorIs(err, tc.expected)
			req.Nil(cmd)
		})
	}
}

func TestEncode(t *testing.T) {
	req := require.New(t)
	ack := int64(3)

	raw, err := Encode(event.Ack, []domain.Message{}, &ack)
	req.NoError(err)
	req.JSONEq(`{"event":"ack","data":[],"ack":3}`, string(raw))

	raw, err = Encode(event.MessagesRead, event.MessagesReadBy{By: "bob"}, nil)
	req.NoError(err)
	req.JSONEq(`{"event":"messagesRead","data":{"by":"bob"}}`, string(raw))
}
