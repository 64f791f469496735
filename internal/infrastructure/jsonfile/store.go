// Package jsonfile is the file-backed storage backend: one JSON document per
// entity kind, every operation serialized behind a single mutex. It trades
// throughput for simplicity and is the default backend for development and
// single-node deployments.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-secret-switch/internal/domain"
	"github.com/go-secret-switch/internal/pkg/clock"
	"github.com/go-secret-switch/internal/pkg/id"
)

const (
	usersFile    = "users.json"
	messagesFile = "messages.json"
)

// Store persists users and messages as JSON maps keyed by record id.
// All operations hold mu for their full duration, so each is atomic with
// respect to every other; there is no transactional engine underneath.
type Store struct {
	mu  sync.Mutex
	dir string
	now clock.Clock
}

// New opens (or creates) a store rooted at dir.
func New(dir string, now clock.Clock) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{dir: dir, now: now}, nil
}

func (s *Store) PutUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putUserLocked(u)
}

func (s *Store) GetUser(_ context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserLocked(email)
}

func (s *Store) PutMessage(_ context.Context, m domain.SecretMessage) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadMessages()
	if err != nil {
		return "", err
	}
	m.ID = id.New()
	m.CreatedTS = s.now()
	messages[m.ID] = m
	if err := s.saveMessages(messages); err != nil {
		return "", err
	}
	slog.Info("message stored", "id", m.ID)
	return m.ID, nil
}

func (s *Store) UpdateMessageNotifiedOn(_ context.Context, msgID, actingEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadMessages()
	if err != nil {
		return err
	}
	m, ok := messages[msgID]
	if !ok {
		return fmt.Errorf("message %s: %w", msgID, domain.ErrNotFound)
	}
	switch actingEmail {
	case m.Recipient:
		m.RecipientNotifiedOn = s.now()
	case m.Owner:
		m.OwnerNotifiedOn = s.now()
	default:
		return fmt.Errorf("%s is neither owner nor recipient of message %s: %w",
			actingEmail, msgID, domain.ErrBadRequest)
	}
	messages[msgID] = m
	return s.saveMessages(messages)
}

func (s *Store) SetMessageRevealedIfNeeded(_ context.Context, msgID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRevealedLocked(msgID)
}

func (s *Store) GetAllMessages(_ context.Context) (map[string]domain.SecretMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMessages()
}

func (s *Store) GetMessagesFor(_ context.Context, email string) ([]domain.MessageProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadMessages()
	if err != nil {
		return nil, err
	}
	var out []domain.MessageProjection
	for msgID, m := range messages {
		if m.Owner != email && m.Recipient != email {
			continue
		}
		owner, err := s.getUserLocked(m.Owner)
		if err != nil {
			return nil, err
		}
		recipient, err := s.getUserLocked(m.Recipient)
		if err != nil {
			return nil, err
		}
		revealed, err := s.setRevealedLocked(msgID)
		if err != nil {
			return nil, err
		}
		p := domain.MessageProjection{
			ID:                    msgID,
			Owner:                 owner.ID,
			Recipient:             recipient.ID,
			VerifyEveryMinutes:    m.VerifyEveryMinutes,
			MaxFailedVerification: m.MaxFailedVerification,
			CreatedTS:             m.CreatedTS,
			Revealed:              revealed,
			OwnerLastSeen:         owner.LastSeen,
			RecipientLastSeen:     recipient.LastSeen,
		}
		if email == m.Owner || (email == m.Recipient && revealed) {
			p.SystemShare = m.SystemShare
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) DeleteMessage(_ context.Context, email, msgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.loadMessages()
	if err != nil {
		return err
	}
	m, ok := messages[msgID]
	if !ok || (m.Owner != email && m.Recipient != email) {
		return fmt.Errorf("message %s: %w", msgID, domain.ErrNotFound)
	}
	if email == m.Recipient {
		// Evaluated at delete time, not from the possibly stale flag.
		revealed, err := s.setRevealedLocked(msgID)
		if err != nil {
			return err
		}
		if !revealed {
			return fmt.Errorf("message %s is not revealed yet: %w", msgID, domain.ErrForbidden)
		}
		// Re-read: the lazy reveal may have rewritten the record.
		messages, err = s.loadMessages()
		if err != nil {
			return err
		}
	}
	delete(messages, msgID)
	return s.saveMessages(messages)
}

func (s *Store) SubscribeUser(_ context.Context, email string, sub domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.getUserLocked(email)
	if err != nil {
		return err
	}
	u.Subscription = sub
	return s.putUserLocked(u)
}

func (s *Store) UnsubscribeUser(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.getUserLocked(email)
	if err != nil {
		return err
	}
	u.Subscription = domain.Subscription{}
	return s.putUserLocked(u)
}

// --- lock-held helpers ---

func (s *Store) setRevealedLocked(msgID string) (bool, error) {
	messages, err := s.loadMessages()
	if err != nil {
		return false, err
	}
	m, ok := messages[msgID]
	if !ok {
		return false, fmt.Errorf("message %s: %w", msgID, domain.ErrNotFound)
	}
	if m.Revealed {
		return true, nil
	}
	owner, err := s.getUserLocked(m.Owner)
	if err != nil {
		return false, err
	}
	if !m.ShouldReveal(owner.LastSeen, s.now()) {
		return false, nil
	}
	m.Revealed = true
	messages[msgID] = m
	if err := s.saveMessages(messages); err != nil {
		return false, err
	}
	slog.Info("message revealed", "id", msgID)
	return true, nil
}

func (s *Store) putUserLocked(u domain.User) error {
	users, err := s.loadUsers()
	if err != nil {
		return err
	}
	users[u.ID] = u
	return s.saveUsers(users)
}

func (s *Store) getUserLocked(email string) (domain.User, error) {
	users, err := s.loadUsers()
	if err != nil {
		return domain.User{}, err
	}
	u, ok := users[email]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return u, nil
}

func (s *Store) loadUsers() (map[string]domain.User, error) {
	out := map[string]domain.User{}
	if err := s.loadFile(usersFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) saveUsers(users map[string]domain.User) error {
	return s.saveFile(usersFile, users)
}

func (s *Store) loadMessages() (map[string]domain.SecretMessage, error) {
	out := map[string]domain.SecretMessage{}
	if err := s.loadFile(messagesFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) saveMessages(messages map[string]domain.SecretMessage) error {
	return s.saveFile(messagesFile, messages)
}

func (s *Store) loadFile(name string, v interface{}) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// saveFile writes via a temp file and rename so a crash mid-write never
// leaves a truncated document behind.
func (s *Store) saveFile(name string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
