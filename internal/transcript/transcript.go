// Package transcript provides the append-only conversation log.
package transcript

import (
	"encoding/json"
	"sync"

	"github.com/kiqmontajes/quotechat/internal/domain"
)

// Listener receives advisory notifications for every mutation so the
// presentation layer can scroll to the latest entry. Correctness never
// depends on a listener being registered.
type Listener interface {
	MessageAppended(msg domain.Message)
	OptionsChanged(opts []domain.Option)
}

// Store is the ordered log of exchanged messages plus the currently
// offered quick replies. Append order is the order the user reads.
type Store struct {
	mu       sync.RWMutex
	messages []domain.Message
	options  []domain.Option
	listener Listener
}

// New creates an empty transcript.
func New() *Store {
	return &Store{}
}

// SetListener registers the single presentation-layer listener.
func (s *Store) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Append adds a message to the end of the log. Appending a second
// loading placeholder while one is pending is ignored: at most one
// loading entry exists at any time.
func (s *Store) Append(msg domain.Message) {
	s.mu.Lock()
	if msg.Kind == domain.MessageLoading && s.hasPendingLoadingLocked() {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, msg)
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		l.MessageAppended(msg)
	}
}

// ReplaceLastLoading removes the pending loading placeholder and
// appends msg in its place. Without a pending placeholder this is a
// no-op, which tolerates duplicate completion signals.
func (s *Store) ReplaceLastLoading(msg domain.Message) {
	s.mu.Lock()
	if !s.hasPendingLoadingLocked() {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages[:len(s.messages)-1], msg)
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		l.MessageAppended(msg)
	}
}

// HasPendingLoading reports whether a loading placeholder is pending.
func (s *Store) HasPendingLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPendingLoadingLocked()
}

func (s *Store) hasPendingLoadingLocked() bool {
	n := len(s.messages)
	return n > 0 && s.messages[n-1].Kind == domain.MessageLoading
}

// Messages returns a copy of the log.
func (s *Store) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LoadingCount returns the number of loading placeholders in the log.
func (s *Store) LoadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.messages {
		if m.Kind == domain.MessageLoading {
			count++
		}
	}
	return count
}

// SetOptions replaces the current quick-reply set wholesale.
func (s *Store) SetOptions(opts []domain.Option) {
	s.mu.Lock()
	s.options = append([]domain.Option(nil), opts...)
	l := s.listener
	current := s.options
	s.mu.Unlock()

	if l != nil {
		l.OptionsChanged(current)
	}
}

// ClearOptions drops the current quick-reply set.
func (s *Store) ClearOptions() {
	s.SetOptions(nil)
}

// Options returns a copy of the currently offered quick replies.
func (s *Store) Options() []domain.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Option(nil), s.options...)
}

// Reset discards all messages and options, for wizard restarts.
func (s *Store) Reset() {
	s.mu.Lock()
	s.messages = nil
	s.options = nil
	s.mu.Unlock()
}

// snapshot is the serialized transcript form.
type snapshot struct {
	Messages []domain.Message `json:"messages"`
	Options  []domain.Option  `json:"options,omitempty"`
}

// MarshalJSON serializes messages and options for persistence.
func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(snapshot{Messages: s.messages, Options: s.options})
}

// Restore replaces the transcript contents from a serialized snapshot.
func (s *Store) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	s.messages = snap.Messages
	s.options = snap.Options
	s.mu.Unlock()
	return nil
}
