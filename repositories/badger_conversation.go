package repositories

import (
	"bytes"
	"dm-relay/domain"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix     = "msg:"
	partnerPrefix     = "peer:"
	sequenceKey       = "seq:msg"
	sequenceBandwidth = 1000
)

// BadgerConversationStore keeps conversations in an in-memory BadgerDB.
// Keys are laid out as "msg:{pair}:{seq}" where seq is a 19-digit zero padded
// sequence number, so a prefix scan returns a pair's history in append order.
// "peer:{user}:{other}" entries index conversation partners.
type BadgerConversationStore struct {
	db       *badger.DB
	log      *slog.Logger
	sequence *badger.Sequence
	ttl      time.Duration
	now      func() time.Time
}

type diskMessage struct {
	ID      uuid.UUID `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Content string    `json:"content"`
	At      int64     `json:"at"`
	Read    bool      `json:"read"`
}

// OpenInMemoryBadger opens a BadgerDB that lives only as long as the process.
func OpenInMemoryBadger() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
}

// NewBadgerConversationStore wraps db. A positive ttl makes every message and
// partner index entry expire after ttl; zero keeps them for the process lifetime.
func NewBadgerConversationStore(db *badger.DB, log *slog.Logger, ttl time.Duration) (*BadgerConversationStore, error) {
	sequence, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &BadgerConversationStore{
		db:       db,
		log:      log,
		sequence: sequence,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *BadgerConversationStore) AppendMessage(from, to, content string) (domain.Message, error) {
	message := domain.NewMessage(from, to, content, s.now())
	seq, err := s.sequence.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message sequence: %w", err)
	}
	value, err := json.Marshal(fromDomainMessage(message))
	if err != nil {
		return domain.Message{}, err
	}

	key := domain.NewConversationKey(from, to)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(messageKey(key, seq), value)); err != nil {
			return err
		}
		if err := txn.SetEntry(s.entry(partnerKey(key.A, key.B), nil)); err != nil {
			return err
		}
		return txn.SetEntry(s.entry(partnerKey(key.B, key.A), nil))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (s *BadgerConversationStore) History(userA, userB string) ([]domain.Message, error) {
	history := []domain.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanConversation(txn, domain.NewConversationKey(userA, userB), func(_ *badger.Item, m diskMessage) error {
			history = append(history, toDomainMessage(m))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// MarkAllRead rewrites the unread messages addressed to reader, keeping their original expiry.
func (s *BadgerConversationStore) MarkAllRead(reader, counterpart string) (int, error) {
	marked := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		var entries []*badger.Entry
		err := scanConversation(txn, domain.NewConversationKey(reader, counterpart), func(item *badger.Item, m diskMessage) error {
			if m.To != reader || m.Read {
				return nil
			}
			m.Read = true
			value, err := json.Marshal(m)
			if err != nil {
				return err
			}
			entry := badger.NewEntry(item.KeyCopy(nil), value)
			if expiresAt := item.ExpiresAt(); expiresAt > 0 {
				remaining := time.Until(time.Unix(int64(expiresAt), 0))
				if remaining <= 0 {
					return nil
				}
				entry = entry.WithTTL(remaining)
			}
			entries = append(entries, entry)
			return nil
		})
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := txn.SetEntry(entry); err != nil {
				return err
			}
		}
		marked = len(entries)
		return nil
	})
	return marked, err
}

func (s *BadgerConversationStore) UnreadCount(owner, counterpart string) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		return scanConversation(txn, domain.NewConversationKey(owner, counterpart), func(_ *badger.Item, m diskMessage) error {
			if m.To == owner && !m.Read {
				count++
			}
			return nil
		})
	})
	return count, err
}

func (s *BadgerConversationStore) Partners(username string) ([]string, error) {
	var partners []string
	prefix := []byte(partnerPrefix + encodeName(username) + ":")
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			partner, err := decodeName(string(bytes.TrimPrefix(it.Item().Key(), prefix)))
			if err != nil {
				return err
			}
			partners = append(partners, partner)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(partners)
	return partners, nil
}

// Conversations counts pairs through the partner index, each pair being indexed twice.
func (s *BadgerConversationStore) Conversations() int {
	entries := 0
	selfPairs := 0
	_ = s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		prefix := []byte(partnerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			parts := strings.Split(string(it.Item().Key()[len(prefix):]), ":")
			if len(parts) == 2 && parts[0] == parts[1] {
				selfPairs++
				continue
			}
			entries++
		}
		return nil
	})
	return entries/2 + selfPairs
}

// Close releases the sequence lease. The DB itself belongs to the caller.
func (s *BadgerConversationStore) Close() error {
	return s.sequence.Release()
}

func (s *BadgerConversationStore) entry(key, value []byte) *badger.Entry {
	entry := badger.NewEntry(key, value)
	if s.ttl > 0 {
		entry = entry.WithTTL(s.ttl)
	}
	return entry
}

func scanConversation(txn *badger.Txn, key domain.ConversationKey, fn func(item *badger.Item, m diskMessage) error) error {
	prefix := conversationPrefix(key)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var m diskMessage
		err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &m)
		})
		if err != nil {
			return err
		}
		if err = fn(item, m); err != nil {
			return err
		}
	}
	return nil
}

// Usernames are hex encoded in keys so that ':' inside a name cannot break prefix scans.
func encodeName(username string) string {
	return hex.EncodeToString([]byte(username))
}

func decodeName(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func conversationPrefix(key domain.ConversationKey) []byte {
	return []byte(fmt.Sprintf("%s%s.%s:", messagePrefix, encodeName(key.A), encodeName(key.B)))
}

func messageKey(key domain.ConversationKey, seq uint64) []byte {
	return append(conversationPrefix(key), []byte(fmt.Sprintf("%019d", seq))...)
}

func partnerKey(owner, partner string) []byte {
	return []byte(partnerPrefix + encodeName(owner) + ":" + encodeName(partner))
}

func fromDomainMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:      message.ID,
		From:    message.From,
		To:      message.To,
		Content: message.Content,
		At:      message.Timestamp.UnixNano(),
		Read:    message.Read,
	}
}

func toDomainMessage(m diskMessage) domain.Message {
	return domain.Message{
		ID:        m.ID,
		From:      m.From,
		To:        m.To,
		Content:   m.Content,
		Timestamp: time.Unix(0, m.At).UTC(),
		Read:      m.Read,
	}
}
