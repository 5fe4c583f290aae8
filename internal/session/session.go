// Package session tracks the per-user announcement dialog.
//
// Every user has at most one active session. A session walks strictly
// forward through awaiting_name, awaiting_episode, and complete;
// cancellation and idle expiry clear it from any state. All state is
// in-memory and ephemeral.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Command is the action the user requested.
type Command string

const (
	CommandWatch    Command = "watch"
	CommandDownload Command = "download"
)

// State is the dialog step a session is waiting on.
type State string

const (
	StateAwaitingName    State = "awaiting_name"
	StateAwaitingEpisode State = "awaiting_episode"
	StateComplete        State = "complete"
)

// Session is one user's dialog state.
type Session struct {
	UserID        int64     `json:"user_id"`
	Command       Command   `json:"command"`
	State         State     `json:"state"`
	AnimeName     string    `json:"anime_name,omitempty"`
	EpisodeNumber int       `json:"episode_number,omitempty"`
	// Suggestions are the ranked names offered after a failed exact
	// match; a numeric reply picks one of them.
	Suggestions []string  `json:"suggestions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store owns all active sessions, keyed by user id.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates a Store whose sessions expire after ttl idle time.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin creates a fresh session for the user, replacing any prior one.
func (s *Store) Begin(userID int64, cmd Command) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		UserID:    userID,
		Command:   cmd,
		State:     StateAwaitingName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[userID] = sess
	return *sess
}

// Get returns a copy of the user's active session. expired reports
// that a session existed but aged out; it is cleared before
// returning so the caller can inform the user. An active session is
// touched: any interaction counts as activity.
func (s *Store) Get(userID int64) (sess Session, ok bool, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, found := s.sessions[userID]
	if !found {
		return Session{}, false, false
	}
	if s.now().Sub(cur.UpdatedAt) > s.ttl {
		delete(s.sessions, userID)
		return Session{}, false, true
	}
	cur.UpdatedAt = s.now()
	return *cur, true, false
}

// SetSuggestions records the ranked names offered to the user. The
// session stays in awaiting_name.
func (s *Store) SetSuggestions(userID int64, names []string) error {
	_, err := s.update(userID, StateAwaitingName, func(sess *Session) {
		sess.Suggestions = names
	})
	return err
}

// SetName records the matched anime name and advances to
// awaiting_episode.
func (s *Store) SetName(userID int64, name string) error {
	_, err := s.update(userID, StateAwaitingName, func(sess *Session) {
		sess.AnimeName = name
		sess.Suggestions = nil
		sess.State = StateAwaitingEpisode
	})
	return err
}

// SetEpisode records the episode number and advances to complete.
// The returned copy is taken inside the same critical section as the
// transition, so a concurrent Delete or sweep cannot race it.
func (s *Store) SetEpisode(userID int64, number int) (Session, error) {
	return s.update(userID, StateAwaitingEpisode, func(sess *Session) {
		sess.EpisodeNumber = number
		sess.State = StateComplete
	})
}

// Delete clears the user's session, if any. Used for cancellation and
// after the single post attempt of a completed session.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Active returns copies of all non-expired sessions.
func (s *Store) Active() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	now := s.now()
	for _, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl {
			continue
		}
		out = append(out, *sess)
	}
	return out
}

// StartJanitor sweeps expired sessions in the background until ctx is
// canceled. Expiry is also detected on access, so the janitor only
// keeps the map from accumulating abandoned dialogs.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// update applies fn to the user's session after checking it is in the
// expected state, and returns a copy of the result. Transitions are
// forward-only; anything else is a bug in the caller.
func (s *Store) update(userID int64, want State, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, fmt.Errorf("no active session for user %d", userID)
	}
	if sess.State != want {
		return Session{}, fmt.Errorf("session for user %d is %s, want %s", userID, sess.State, want)
	}
	fn(sess)
	sess.UpdatedAt = s.now()
	return *sess, nil
}
