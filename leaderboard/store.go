package leaderboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"word-battle/api"
)

// Lister fetches the players of a leaderboard partition.
type Lister interface {
	ListTopUsers(ctx context.Context, leaderboard string) ([]api.UserRecord, error)
}

// PlayerPatch holds the fields UpdatePlayer merges. Nil fields are left alone.
type PlayerPatch struct {
	Username *string
	Word     *string
	Elo      *float64
}

// Store caches the leaderboard sorted by descending elo. Ties keep their
// previous relative order and no uuid appears twice.
//
// Only the most recent fetch may replace the list: starting a new fetch
// cancels the previous one, and a fetch that was superseded or cancelled
// is dropped without touching the list or the error.
type Store struct {
	lister Lister

	mu        sync.Mutex
	players   []api.UserRecord
	partition string
	err       string
	loaded    bool
	loading   bool
	gen       uint64
	cancel    context.CancelFunc
}

// NewStore returns an empty store for partition ("" for all players).
func NewStore(lister Lister, partition string) *Store {
	return &Store{lister: lister, partition: partition}
}

// Refresh refetches the current partition.
func (s *Store) Refresh(ctx context.Context) error {
	return s.fetch(ctx, s.Partition())
}

// SetPartition switches partition and fetches it, superseding any fetch
// still in flight.
func (s *Store) SetPartition(ctx context.Context, partition string) error {
	s.mu.Lock()
	s.partition = partition
	s.mu.Unlock()
	return s.fetch(ctx, partition)
}

func (s *Store) fetch(ctx context.Context, partition string) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loading = true
	s.mu.Unlock()
	defer cancel()

	players, err := s.lister.ListTopUsers(fetchCtx, partition)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		slog.Debug("discarding superseded fetch", "tag", "leaderboard", "partition", partition)
		return nil
	}
	s.cancel = nil
	s.loading = false
	if fetchCtx.Err() != nil {
		slog.Debug("fetch cancelled", "tag", "leaderboard", "partition", partition)
		return nil
	}
	if err != nil {
		s.err = api.UserMessage(err)
		slog.Warn("fetch failed", "tag", "leaderboard", "partition", partition, "err", err)
		return err
	}
	s.err = ""
	s.loaded = true
	s.players = dedupe(players)
	sortByElo(s.players)
	slog.Debug("leaderboard loaded", "tag", "leaderboard", "partition", partition, "players", len(s.players))
	return nil
}

// Close cancels any fetch in flight. Its result, if it arrives, is dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.loading = false
}

// UpdatePlayer merges patch into the player with id and re-sorts. It does
// nothing if no such player is listed.
func (s *Store) UpdatePlayer(id string, patch PlayerPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	p := &s.players[i]
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Word != nil {
		p.Word = *patch.Word
	}
	if patch.Elo != nil {
		p.Elo = *patch.Elo
	}
	sortByElo(s.players)
	return true
}

// AddPlayer inserts rec, replacing in place a listed player with the same uuid.
func (s *Store) AddPlayer(rec api.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(rec.UUID); i >= 0 {
		s.players[i] = rec
	} else {
		s.players = append(s.players, rec)
	}
	sortByElo(s.players)
}

// ApplyBattle sets both participants' elo from a battle result.
func (s *Store) ApplyBattle(res api.BattleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range []*api.UserRecord{res.UserRecord, res.OtherUserRecord} {
		if rec == nil {
			continue
		}
		if i := s.indexLocked(rec.UUID); i >= 0 {
			s.players[i].Elo = rec.Elo
		}
	}
	sortByElo(s.players)
}

// Players returns a copy of the sorted list.
func (s *Store) Players() []api.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.UserRecord(nil), s.players...)
}

// Partition returns the selected partition.
func (s *Store) Partition() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partition
}

// Err returns the message of the last failed fetch, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Loaded reports whether any fetch has completed successfully.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// IsLoading reports whether a fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) indexLocked(id string) int {
	for i, p := range s.players {
		if p.UUID == id {
			return i
		}
	}
	return -1
}

func dedupe(in []api.UserRecord) []api.UserRecord {
	seen := make(map[string]bool, len(in))
	out := make([]api.UserRecord, 0, len(in))
	for _, p := range in {
		if seen[p.UUID] {
			continue
		}
		seen[p.UUID] = true
		out = append(out, p)
	}
	return out
}

func sortByElo(players []api.UserRecord) {
	sort.SliceStable(players, func(i, j int) bool { return players[i].Elo > players[j].Elo })
}
