package game

import "word-battle/api"

// UserView is the signed-in player as the screens see it.
type UserView struct {
	Record   api.UserRecord
	SignedIn bool
	Loading  bool
	Err      string
}

// LeaderboardView is the cached leaderboard as the screens see it.
type LeaderboardView struct {
	Players   []api.UserRecord
	Partition string
	Loaded    bool
	Loading   bool
	Err       string
}

// BattleView is the state of the battle card.
type BattleView struct {
	Result   *api.BattleResult
	Battling bool
	Err      string
}

// Snapshot is everything the screens render, read in one go.
type Snapshot struct {
	User        UserView
	Leaderboard LeaderboardView
	Battle      BattleView
}

// CurrentID returns the signed-in player's uuid, or "".
func (s Snapshot) CurrentID() string {
	if !s.User.SignedIn {
		return ""
	}
	return s.User.Record.UUID
}

// Snapshot reads the current state of both stores and the last battle.
// It holds the app lock so a battle's elo lands in both views or neither.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.Session.UserData()
	snap := Snapshot{
		User: UserView{
			Record:   rec,
			SignedIn: ok,
			Loading:  a.Session.IsLoading(),
			Err:      a.Session.Err(),
		},
		Leaderboard: LeaderboardView{
			Players:   a.Leaderboard.Players(),
			Partition: a.Leaderboard.Partition(),
			Loaded:    a.Leaderboard.Loaded(),
			Loading:   a.Leaderboard.IsLoading(),
			Err:       a.Leaderboard.Err(),
		},
	}
	if a.lastResult != nil {
		res := *a.lastResult
		snap.Battle.Result = &res
	}
	snap.Battle.Battling = a.battling
	snap.Battle.Err = a.battleErr
	return snap
}
