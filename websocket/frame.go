// Package websocket binds gorilla websocket connections to the relay coordinator.
package websocket

import (
	"dm-relay/domain"
	"dm-relay/domain/event"
	"dm-relay/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Frame is the JSON envelope carried by every websocket text message in both directions.
type Frame struct {
	Event event.Name      `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int64          `json:"ack,omitempty"`
}

// Encode wraps payload into a frame. ack is only set on replies.
func Encode(name event.Name, payload any, ack *int64) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return json.Marshal(Frame{Event: name, Data: data, Ack: ack})
}

// Decoder turns inbound frames into coordinator commands.
type Decoder struct {
	validate *validator.Validate
}

func NewDecoder() *Decoder {
	return &Decoder{validate: validator.New()}
}

// Decode maps frame to a command for connID. reply receives the history of a getChatHistory request.
// Unknown events give ErrUnknownEvent and malformed payloads ErrInvalidPayload.
func (d *Decoder) Decode(connID domain.ConnectionID, frame Frame, reply func([]domain.Message)) (domain.Command, error) {
	switch frame.Event {
	case event.Register:
		// A missing or null username reaches the registry as empty and is answered there.
		var username string
		if len(frame.Data) > 0 && string(frame.Data) != "null" {
			if err := json.Unmarshal(frame.Data, &username); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidPayload, frame.Event, err)
			}
		}
		return domain.RegisterCommand{Connection: connID, Username: username}, nil

	case event.PrivateMessage:
		var payload event.PrivateMessagePayload
		if err := d.decodeInto(frame, &payload); err != nil {
			return nil, err
		}
		return domain.PrivateMessageCommand{
			Connection: connID,
			To:         payload.To,
			From:       payload.From,
			Content:    payload.Message,
		}, nil

	case event.MarkAsRead:
		var payload event.MarkAsReadPayload
		if err := d.decodeInto(frame, &payload); err != nil {
			return nil, err
		}
		return domain.MarkAsReadCommand{Connection: connID, Sender: payload.Sender, Receiver: payload.Receiver}, nil

	case event.Typing, event.StopTyping:
		var payload event.TypingPayload
		if err := d.decodeInto(frame, &payload); err != nil {
			return nil, err
		}
		return domain.TypingCommand{
			Connection: connID,
			To:         payload.To,
			From:       payload.From,
			Stopped:    frame.Event == event.StopTyping,
		}, nil

	case event.GetChatHistory:
		var payload event.ChatHistoryPayload
		if err := d.decodeInto(frame, &payload); err != nil {
			return nil, err
		}
		return domain.GetChatHistoryCommand{
			Connection:  connID,
			WithUser:    payload.WithUser,
			CurrentUser: payload.CurrentUser,
			Reply:       reply,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, frame.Event)
	}
}

func (d *Decoder) decodeInto(frame Frame, payload any) error {
	if err := json.Unmarshal(frame.Data, payload); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidPayload, frame.Event, err)
	}
	if err := d.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidPayload, frame.Event, err)
	}
	return nil
}
