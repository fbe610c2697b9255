package session

import (
	"context"
	"log/slog"
	"sync"

	"word-battle/api"
)

// UserFetcher loads a player record by id.
type UserFetcher interface {
	GetUser(ctx context.Context, id string) (api.UserRecord, error)
}

// Store holds the signed-in player's record plus loading and error state.
// Concurrent fetches are not coalesced: whichever finishes last wins.
type Store struct {
	fetcher UserFetcher

	mu      sync.Mutex
	user    api.UserRecord
	hasUser bool
	err     string
	loading int
}

// NewStore returns an empty store backed by fetcher.
func NewStore(fetcher UserFetcher) *Store {
	return &Store{fetcher: fetcher}
}

// FetchUserData loads the record for id. On failure the user-facing message is
// kept in Err and the error is returned; the caller treats it as an invalid session.
func (s *Store) FetchUserData(ctx context.Context, id string) error {
	s.mu.Lock()
	s.loading++
	s.err = ""
	s.mu.Unlock()

	rec, err := s.fetcher.GetUser(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if err != nil {
		s.err = api.UserMessage(err)
		slog.Warn("fetch user failed", "tag", "session", "uuid", id, "err", err)
		return err
	}
	s.user = rec
	s.hasUser = true
	return nil
}

// SetUserData overwrites the held record.
func (s *Store) SetUserData(rec api.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = rec
	s.hasUser = true
}

// ApplyElo updates the held record's elo if it belongs to id.
func (s *Store) ApplyElo(id string, elo float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasUser || s.user.UUID != id {
		return false
	}
	s.user.Elo = elo
	return true
}

// UserData returns the held record, if any.
func (s *Store) UserData() (api.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.hasUser
}

// Err returns the message of the last failed fetch, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsLoading reports whether a fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

// Clear forgets the held record and error.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = api.UserRecord{}
	s.hasUser = false
	s.err = ""
}
