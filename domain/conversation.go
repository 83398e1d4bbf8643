package domain

// ConversationKey identifies the unordered pair of usernames sharing one history.
// A is always lexicographically lower than or equal to B.
type ConversationKey struct {
	A string
	B string
}

func NewConversationKey(first, second string) ConversationKey {
	if second < first {
		first, second = second, first
	}
	return ConversationKey{A: first, B: second}
}

// Counterpart returns the other side of the pair for username.
func (k ConversationKey) Counterpart(username string) (string, bool) {
	switch username {
	case k.A:
		return k.B, true
	case k.B:
		return k.A, true
	default:
		return "", false
	}
}

// Conversation is the single, canonical message sequence of a pair.
// Both participants read the same records, so a read receipt is visible from either side.
type Conversation struct {
	Key      ConversationKey
	messages []Message
}

func NewConversation(key ConversationKey) *Conversation {
	return &Conversation{
		Key:      key,
		messages: nil,
	}
}

func (c *Conversation) Append(message Message) Message {
	c.messages = append(c.messages, message)
	return message
}

// Messages returns a copy of the history in insertion order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// MarkAllRead flips every unread message addressed to reader and returns how many changed.
// Messages sent by reader are left untouched.
func (c *Conversation) MarkAllRead(reader string) int {
	marked := 0
	for i := range c.messages {
		if c.messages[i].Unread(reader) {
			c.messages[i].Read = true
			marked++
		}
	}
	return marked
}

func (c *Conversation) UnreadCount(owner string) int {
	count := 0
	for _, m := range c.messages {
		if m.Unread(owner) {
			count++
		}
	}
	return count
}

// Trim keeps only the most recent limit messages.
func (c *Conversation) Trim(limit int) int {
	if limit <= 0 || len(c.messages) <= limit {
		return 0
	}
	dropped := len(c.messages) - limit
	c.messages = append([]Message(nil), c.messages[dropped:]...)
	return dropped
}

func (c *Conversation) Len() int {
	return len(c.messages)
}
