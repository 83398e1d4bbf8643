package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConversationKey_IsUnordered(t *testing.T) {
	req := require.New(t)

	req.Equal(NewConversationKey("alice", "bob"), NewConversationKey("bob", "alice"))
	req.Equal(ConversationKey{A: "alice", B: "bob"}, NewConversationKey("bob", "alice"))

	other, ok := NewConversationKey("alice", "bob").Counterpart("bob")
	req.True(ok)
	req.Equal("alice", other)

	_, ok = NewConversationKey("alice", "bob").Counterpart("carol")
	req.False(ok)
}

func TestConversation_MarkAllRead_OnlyFlipsReceivedMessages(t *testing.T) {
	req := require.New(t)
	now := time.Now()
	conversation := NewConversation(NewConversationKey("alice", "bob"))

	// Given two messages from alice to bob and one reply from bob
	conversation.Append(NewMessage("alice", "bob", "hi", now))
	conversation.Append(NewMessage("alice", "bob", "are you there?", now))
	conversation.Append(NewMessage("bob", "alice", "yes", now))
	req.Equal(2, conversation.UnreadCount("bob"))
	req.Equal(1, conversation.UnreadCount("alice"))

	// When bob reads the conversation
	marked := conversation.MarkAllRead("bob")

	// Then only the messages addressed to bob are read
	req.Equal(2, marked)
	req.Zero(conversation.UnreadCount("bob"))
	req.Equal(1, conversation.UnreadCount("alice"))

	// And marking again changes nothing
	req.Zero(conversation.MarkAllRead("bob"))
}

func TestConversation_Messages_ReturnsACopy(t *testing.T) {
	req := require.New(t)
	conversation := NewConversation(NewConversationKey("alice", "bob"))
	conversation.Append(NewMessage("alice", "bob", "hi", time.Now()))

	messages := conversation.Messages()
	messages[0].Read = true

	req.Equal(1, conversation.UnreadCount("bob"))
}

func TestConversation_Trim(t *testing.T) {
	req := require.New(t)
	conversation := NewConversation(NewConversationKey("alice", "bob"))
	for _, content := range []string{"1", "2", "3", "4"} {
		conversation.Append(NewMessage("alice", "bob", content, time.Now()))
	}

	req.Zero(conversation.Trim(0))
	req.Equal(2, conversation.Trim(2))
	req.Equal(2, conversation.Len())
	req.Equal("3", conversation.Messages()[0].Content)
	req.Equal("4", conversation.Messages()[1].Content)
}
