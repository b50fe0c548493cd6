//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"dm-relay/domain"
	"dm-relay/errors"
)

type IMessageRepository interface {
	Save(message domain.Message) error
	UpdateStatus(messageID uuid.UUID, status domain.Status) (domain.Message, error)
	FindPending(userID string) ([]domain.Message, error)
	FindThread(userID, peerID string) ([]domain.Message, error)
}

// MessageRepository persists messages in BadgerDB under three key families:
//
//	msg:{uuid}                                  the message record (JSON)
//	inbox:{to}:{timestamp_padded}:{uuid}        pending-delivery index, removed once read
//	thread:{pair}:{timestamp_padded}:{uuid}     conversation index, pair = sorted user IDs
//
// The 19-digit zero-padded UnixNano timestamp makes lexicographical order
// chronological, with the UUID as a collision disconnector if two messages
// arrive at the same nanosecond.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

func recordKey(id uuid.UUID) []byte {
	return []byte("msg:" + id.String())
}

func inboxKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("inbox:%s:%019d:%s", m.To, m.CreatedAt.UnixNano(), m.ID))
}

func threadKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("thread:%s:%019d:%s", pairOf(m.From, m.To), m.CreatedAt.UnixNano(), m.ID))
}

// pairOf builds an order-independent key segment for a conversation.
func pairOf(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// Save persists a freshly sent message and its two index entries atomically.
func (m MessageRepository) Save(message domain.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(message.ID), data); err != nil {
			return err
		}
		if err := txn.Set(inboxKey(message), []byte(message.ID.String())); err != nil {
			return err
		}
		return txn.Set(threadKey(message), []byte(message.ID.String()))
	})
}

// UpdateStatus advances the record's delivery status inside a single
// transaction. Backward moves leave the stored record untouched and
// return ErrInvalidTransition. Reaching read drops the inbox entry.
func (m MessageRepository) UpdateStatus(messageID uuid.UUID, status domain.Status) (domain.Message, error) {
	var updated domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		message, err := getRecord(txn, messageID)
		if err != nil {
			return err
		}

		if !message.Advance(status) {
			return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, message.Status, status)
		}

		data, err := json.Marshal(message)
		if err != nil {
			return err
		}
		if err := txn.Set(recordKey(message.ID), data); err != nil {
			return err
		}
		if message.Status == domain.StatusRead {
			if err := txn.Delete(inboxKey(message)); err != nil {
				return err
			}
		}
		updated = message
		return nil
	})
	return updated, err
}

// FindPending returns every message addressed to userID that was never read,
// oldest first. The padded timestamp in the inbox key gives the order for free.
func (m MessageRepository) FindPending(userID string) ([]domain.Message, error) {
	var pending []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("inbox:" + userID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			message, err := resolveIndexEntry(txn, it.Item())
			if err != nil {
				return err
			}
			pending = append(pending, message)
		}
		return nil
	})
	return pending, err
}

// FindThread returns the conversation between userID and peerID ascending by
// creation time, capped at the configured limit (most recent page). As a side
// effect, unread messages from the peer are marked read: fetching a thread is
// the recipient consuming it.
func (m MessageRepository) FindThread(userID, peerID string) ([]domain.Message, error) {
	var thread []domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		prefixStr := "thread:" + pairOf(userID, peerID) + ":"
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(thread) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d thread messages reached", *m.limitMessages))
				break
			}
			message, err := resolveIndexEntry(txn, it.Item())
			if err != nil {
				return err
			}

			if message.To == userID && message.From == peerID && message.Advance(domain.StatusRead) {
				data, err := json.Marshal(message)
				if err != nil {
					return err
				}
				if err := txn.Set(recordKey(message.ID), data); err != nil {
					return err
				}
				if err := txn.Delete(inboxKey(message)); err != nil {
					return err
				}
			}
			thread = append(thread, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reverse iteration produced newest-first, callers expect ascending.
	for i, j := 0, len(thread)-1; i < j; i, j = i+1, j-1 {
		thread[i], thread[j] = thread[j], thread[i]
	}
	return thread, nil
}

// resolveIndexEntry follows an index value (a message UUID) to its record.
func resolveIndexEntry(txn *badger.Txn, item *badger.Item) (domain.Message, error) {
	var id uuid.UUID
	err := item.Value(func(val []byte) error {
		parsed, err := uuid.Parse(string(val))
		if err != nil {
			return err
		}
		id = parsed
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	return getRecord(txn, id)
}

func getRecord(txn *badger.Txn, id uuid.UUID) (domain.Message, error) {
	item, err := txn.Get(recordKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
		}
		return domain.Message{}, err
	}

	var message domain.Message
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &message)
	})
	return message, err
}
