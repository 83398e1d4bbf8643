// Package runtime holds the presence registry and the relay coordinator.
// It reacts to inbound commands, it does not own any network resource.
package runtime

import (
	"dm-relay/contract"
	"dm-relay/domain"
	"dm-relay/domain/event"
	"dm-relay/errors"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Coordinator is the sole mutator of the presence registry and the conversation store.
// Handle is not safe for concurrent use: commands must reach it one at a time,
// which the DispatchWorker guarantees.
type Coordinator struct {
	log              *slog.Logger
	registry         contract.IPresenceRegistry
	store            contract.IConversationStore
	emitter          contract.Emitter
	filter           contract.ContentFilter
	maxContentLength int
}

// NewCoordinator wires the coordinator. filter may be nil and a maxContentLength of 0 disables the limit.
func NewCoordinator(log *slog.Logger, registry contract.IPresenceRegistry, store contract.IConversationStore,
	emitter contract.Emitter, filter contract.ContentFilter, maxContentLength int) *Coordinator {
	return &Coordinator{
		log:              log,
		registry:         registry,
		store:            store,
		emitter:          emitter,
		filter:           filter,
		maxContentLength: maxContentLength,
	}
}

// Handle applies one command to completion.
func (c *Coordinator) Handle(cmd domain.Command) {
	switch cmd := cmd.(type) {
	case domain.RegisterCommand:
		c.register(cmd)
	case domain.PrivateMessageCommand:
		c.sendPrivateMessage(cmd)
	case domain.MarkAsReadCommand:
		c.markRead(cmd)
	case domain.TypingCommand:
		c.typing(cmd)
	case domain.GetChatHistoryCommand:
		c.getChatHistory(cmd)
	case domain.DisconnectCommand:
		c.disconnect(cmd)
	default:
		c.log.Debug("Unsupported command dropped", "type", fmt.Sprintf("%T", cmd))
	}
}

// register rejects a connection that is already registered, keeping its first username.
func (c *Coordinator) register(cmd domain.RegisterCommand) {
	if current, ok := c.registry.LookupByConnection(cmd.Connection); ok {
		c.rejectRegistration(cmd, fmt.Errorf("%w as %s", errors.ErrAlreadyRegistered, current.Username))
		return
	}

	user, err := c.registry.Register(cmd.Connection, cmd.Username)
	if err != nil {
		c.rejectRegistration(cmd, err)
		return
	}

	c.emitter.EmitTo(cmd.Connection, event.RegistrationSuccess, event.RegistrationSucceeded{
		CurrentUser:  user.Username,
		OtherUsers:   c.registry.ListOthers(user.Username),
		UnreadCounts: c.unreadCounts(user.Username),
	})
	c.emitter.Broadcast(event.UserConnected, user, user.ConnectionID)
	c.log.Info("User registered", "username", user.Username, "connection_id", user.ConnectionID)
}

func (c *Coordinator) rejectRegistration(cmd domain.RegisterCommand, err error) {
	c.log.Debug("Registration rejected", "connection_id", cmd.Connection, "error", err)
	c.emitter.EmitTo(cmd.Connection, event.RegistrationError, err.Error())
}

// unreadCounts covers every known conversation partner, connected or not.
func (c *Coordinator) unreadCounts(username string) map[string]int {
	counts := make(map[string]int)
	partners, err := c.store.Partners(username)
	if err != nil {
		c.log.Error("Failed to list conversation partners", "username", username, "error", err)
		return counts
	}
	for _, partner := range partners {
		count, err := c.store.UnreadCount(username, partner)
		if err != nil {
			c.log.Error("Failed to count unread messages", "username", username, "partner", partner, "error", err)
			continue
		}
		counts[partner] = count
	}
	return counts
}

// sendPrivateMessage only accepts messages between two connected users, anything else is dropped silently.
func (c *Coordinator) sendPrivateMessage(cmd domain.PrivateMessageCommand) {
	receiver, ok := c.registry.LookupByUsername(cmd.To)
	if !ok {
		c.log.Debug("Message dropped, receiver not connected", "from", cmd.From, "to", cmd.To)
		return
	}
	sender, ok := c.registry.LookupByUsername(cmd.From)
	if !ok {
		c.log.Debug("Message dropped, sender not connected", "from", cmd.From, "to", cmd.To)
		return
	}
	if c.maxContentLength > 0 && utf8.RuneCountInString(cmd.Content) > c.maxContentLength {
		c.log.Debug("Message dropped, content too long", "from", cmd.From, "to", cmd.To)
		return
	}

	content := cmd.Content
	if c.filter != nil {
		var censored []string
		content, censored = c.filter.Censor(content)
		if len(censored) > 0 {
			c.log.Info("Message moderated", "from", cmd.From, "censored_words", len(censored))
		}
	}

	message, err := c.store.AppendMessage(cmd.From, cmd.To, content)
	if err != nil {
		c.log.Error("Failed to store message", "from", cmd.From, "to", cmd.To, "error", err)
		return
	}
	unread, err := c.store.UnreadCount(cmd.To, cmd.From)
	if err != nil {
		c.log.Error("Failed to count unread messages", "username", cmd.To, "partner", cmd.From, "error", err)
	}

	c.emitter.EmitTo(receiver.ConnectionID, event.NewMessage, event.IncomingMessage{
		Message:     message,
		UnreadCount: unread,
	})
	c.emitter.EmitTo(sender.ConnectionID, event.MessageSent, message)
}

// markRead marks what Sender wrote to Receiver as read and tells Sender, if connected.
func (c *Coordinator) markRead(cmd domain.MarkAsReadCommand) {
	history, err := c.store.History(cmd.Receiver, cmd.Sender)
	if err != nil {
		c.log.Error("Failed to load history", "sender", cmd.Sender, "receiver", cmd.Receiver, "error", err)
		return
	}
	if len(history) == 0 {
		return
	}
	if _, err = c.store.MarkAllRead(cmd.Receiver, cmd.Sender); err != nil {
		c.log.Error("Failed to mark messages as read", "sender", cmd.Sender, "receiver", cmd.Receiver, "error", err)
		return
	}
	if sender, ok := c.registry.LookupByUsername(cmd.Sender); ok {
		c.emitter.EmitTo(sender.ConnectionID, event.MessagesRead, event.MessagesReadBy{By: cmd.Receiver})
	}
}

func (c *Coordinator) typing(cmd domain.TypingCommand) {
	receiver, ok := c.registry.LookupByUsername(cmd.To)
	if !ok {
		return
	}
	name := event.UserTyping
	if cmd.Stopped {
		name = event.UserStoppedTyping
	}
	c.emitter.EmitTo(receiver.ConnectionID, name, cmd.From)
}

// getChatHistory composes the pure history query with an explicit read receipt for CurrentUser.
// The reply reflects the read flags after marking.
func (c *Coordinator) getChatHistory(cmd domain.GetChatHistoryCommand) {
	history, err := c.store.History(cmd.CurrentUser, cmd.WithUser)
	if err != nil {
		c.log.Error("Failed to load history", "username", cmd.CurrentUser, "partner", cmd.WithUser, "error", err)
		history = []domain.Message{}
	}
	if len(history) > 0 {
		if _, err = c.store.MarkAllRead(cmd.CurrentUser, cmd.WithUser); err != nil {
			c.log.Error("Failed to mark messages as read", "username", cmd.CurrentUser, "partner", cmd.WithUser, "error", err)
		} else {
			for i := range history {
				if history[i].AddressedTo(cmd.CurrentUser) {
					history[i].Read = true
				}
			}
		}
	}
	if cmd.Reply != nil {
		cmd.Reply(history)
	}
}

// disconnect keeps conversations so they are available again after reconnection.
func (c *Coordinator) disconnect(cmd domain.DisconnectCommand) {
	user, ok := c.registry.Remove(cmd.Connection)
	if !ok {
		return
	}
	c.emitter.Broadcast(event.UserDisconnected, user.Username, cmd.Connection)
	c.log.Info("User disconnected", "username", user.Username, "connection_id", cmd.Connection)
}
