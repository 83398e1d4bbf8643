// Package domain contains core concepts of the direct-messaging system.
// This file defines private Message records and their read state.
// A Message is immutable except for Read, which only goes false -> true.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a private text exchanged between two usernames.
type Message struct {
	ID        uuid.UUID `json:"-"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Content   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

func NewMessage(from, to, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Content:   content,
		Timestamp: at,
		Read:      false,
	}
}

// AddressedTo reports whether username is the recipient of the message.
func (m Message) AddressedTo(username string) bool {
	return m.To == username
}

// Unread reports whether the message is still waiting for owner to read it.
func (m Message) Unread(owner string) bool {
	return m.AddressedTo(owner) && !m.Read
}
