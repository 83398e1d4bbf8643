package repositories

import (
	"dm-relay/domain"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// MemoryConversationStore keeps one canonical message sequence per unordered pair of usernames.
// Entries outlive disconnects and are only bounded by limitMessages, when set.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	log           *slog.Logger
	conversations map[domain.ConversationKey]*domain.Conversation
	limitMessages *int
	now           func() time.Time
}

func NewMemoryConversationStore(log *slog.Logger, limitMessages *int) *MemoryConversationStore {
	return &MemoryConversationStore{
		log:           log,
		conversations: make(map[domain.ConversationKey]*domain.Conversation),
		limitMessages: limitMessages,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// AppendMessage stores the message once under the pair key with read=false.
func (s *MemoryConversationStore) AppendMessage(from, to, content string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NewConversationKey(from, to)
	conversation, ok := s.conversations[key]
	if !ok {
		conversation = domain.NewConversation(key)
		s.conversations[key] = conversation
	}
	message := conversation.Append(domain.NewMessage(from, to, content, s.now()))

	if s.limitMessages != nil {
		if dropped := conversation.Trim(*s.limitMessages); dropped > 0 {
			s.log.Debug(fmt.Sprintf("Maximum of %d message reached", *s.limitMessages),
				"pair", key, "dropped", dropped)
		}
	}
	return message, nil
}

// History returns the pair's messages in insertion order, empty when the pair is unknown.
func (s *MemoryConversationStore) History(userA, userB string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[domain.NewConversationKey(userA, userB)]
	if !ok {
		return []domain.Message{}, nil
	}
	return conversation.Messages(), nil
}

func (s *MemoryConversationStore) MarkAllRead(reader, counterpart string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[domain.NewConversationKey(reader, counterpart)]
	if !ok {
		return 0, nil
	}
	return conversation.MarkAllRead(reader), nil
}

func (s *MemoryConversationStore) UnreadCount(owner, counterpart string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[domain.NewConversationKey(owner, counterpart)]
	if !ok {
		return 0, nil
	}
	return conversation.UnreadCount(owner), nil
}

// Partners lists every username username has a conversation with, sorted.
func (s *MemoryConversationStore) Partners(username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partners := lo.FilterMap(lo.Keys(s.conversations), func(key domain.ConversationKey, _ int) (string, bool) {
		return key.Counterpart(username)
	})
	sort.Strings(partners)
	return partners, nil
}

func (s *MemoryConversationStore) Conversations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func (s *MemoryConversationStore) Close() error {
	return nil
}
