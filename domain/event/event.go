// Package event defines the named events exchanged with the transport and their payloads.
package event

import (
	"dm-relay/domain"
)

// Name is the wire name of an event.
type Name string

// Inbound events.
const (
	Register       Name = "register"
	PrivateMessage Name = "privateMessage"
	MarkAsRead     Name = "markAsRead"
	Typing         Name = "typing"
	StopTyping     Name = "stopTyping"
	GetChatHistory Name = "getChatHistory"
	Disconnect     Name = "disconnect"
)

// Outbound events.
const (
	RegistrationError   Name = "registrationError"
	RegistrationSuccess Name = "registrationSuccess"
	UserConnected       Name = "userConnected"
	NewMessage          Name = "newMessage"
	MessageSent         Name = "messageSent"
	MessagesRead        Name = "messagesRead"
	UserTyping          Name = "userTyping"
	UserStoppedTyping   Name = "userStoppedTyping"
	UserDisconnected    Name = "userDisconnected"
	Ack                 Name = "ack"
)

type RegistrationSucceeded struct {
	CurrentUser  string         `json:"currentUser"`
	OtherUsers   []domain.User  `json:"otherUsers"`
	UnreadCounts map[string]int `json:"unreadCounts"`
}

// IncomingMessage is delivered to the recipient with the pair's fresh unread count.
type IncomingMessage struct {
	domain.Message
	UnreadCount int `json:"unreadCount"`
}

type MessagesReadBy struct {
	By string `json:"by"`
}

type PrivateMessagePayload struct {
	To      string `json:"to" validate:"required"`
	From    string `json:"from" validate:"required"`
	Message string `json:"message"`
}

type MarkAsReadPayload struct {
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
}

type TypingPayload struct {
	To   string `json:"to" validate:"required"`
	From string `json:"from" validate:"required"`
}

type ChatHistoryPayload struct {
	WithUser    string `json:"withUser" validate:"required"`
	CurrentUser string `json:"currentUser" validate:"required"`
}
