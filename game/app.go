package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"word-battle/api"
	"word-battle/battleerrors"
	"word-battle/leaderboard"
	"word-battle/session"
)

// Client is the subset of the RPC client the game flows use.
type Client interface {
	RegisterUser(ctx context.Context, username, word string) (api.UserRecord, error)
	GetUser(ctx context.Context, id string) (api.UserRecord, error)
	Battle(ctx context.Context, id string) (api.BattleResult, error)
	ListTopUsers(ctx context.Context, leaderboard string) ([]api.UserRecord, error)
	GetBattle(ctx context.Context, id string, timestamp int64) (api.BattleResult, error)
}

// TokenStore is the durable session slot.
type TokenStore interface {
	SessionToken(ctx context.Context) (string, error)
	SetSessionToken(ctx context.Context, id string) error
	ClearSessionToken(ctx context.Context) error
}

// App owns the stores and runs the registration, battle, reset and
// historical flows. It is created once at start-up and shared by the UI.
type App struct {
	client Client
	tokens TokenStore

	Session     *session.Store
	Leaderboard *leaderboard.Store

	mu         sync.Mutex
	lastResult *api.BattleResult
	battleErr  string
	battling   bool
}

// NewApp wires the stores to client and tokens. partition selects the
// initial leaderboard ("" for all players).
func NewApp(client Client, tokens TokenStore, partition string) *App {
	return &App{
		client:      client,
		tokens:      tokens,
		Session:     session.NewStore(client),
		Leaderboard: leaderboard.NewStore(client, partition),
	}
}

// Resume restores the session from the durable token while loading the
// leaderboard. It returns nil when a player is signed in. Without a usable
// session it returns an error wrapping battleerrors.ErrNoSession (and the
// fetch failure, if any); the token is cleared and the caller shows
// registration. Leaderboard failures are recorded in the store only.
func (a *App) Resume(ctx context.Context) error {
	id, err := a.tokens.SessionToken(ctx)
	if err != nil && !errors.Is(err, battleerrors.ErrNoToken) {
		return fmt.Errorf("read session token: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := a.Leaderboard.Refresh(ctx); err != nil {
			slog.Warn("initial leaderboard fetch failed", "tag", "game", "err", err)
		}
		return nil
	})
	if id != "" {
		g.Go(func() error {
			return a.Session.FetchUserData(ctx, id)
		})
	}
	fetchErr := g.Wait()

	if id == "" {
		return battleerrors.ErrNoSession
	}
	if fetchErr != nil {
		slog.Info("session invalid, clearing token", "tag", "game", "uuid", id, "err", fetchErr)
		if err := a.tokens.ClearSessionToken(ctx); err != nil {
			slog.Warn("clear session token failed", "tag", "game", "err", err)
		}
		return fmt.Errorf("%w: %w", battleerrors.ErrNoSession, fetchErr)
	}
	slog.Info("session resumed", "tag", "game", "uuid", id)
	return nil
}

// Register creates a player with a battle word, persists its uuid as the
// session token, seeds both stores and calls onRegistered. Empty fields
// fail with battleerrors.ErrMissingField before anything is sent.
func (a *App) Register(ctx context.Context, username, word string, onRegistered func(id string)) (api.UserRecord, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(word) == "" {
		return api.UserRecord{}, battleerrors.ErrMissingField
	}
	rec, err := a.client.RegisterUser(ctx, username, word)
	if err != nil {
		slog.Warn("register failed", "tag", "game", "username", username, "err", err)
		return api.UserRecord{}, err
	}
	if err := a.tokens.SetSessionToken(ctx, rec.UUID); err != nil {
		return api.UserRecord{}, fmt.Errorf("store session token: %w", err)
	}
	a.mu.Lock()
	a.Leaderboard.AddPlayer(rec)
	a.Session.SetUserData(rec)
	a.resetBattleLocked()
	a.mu.Unlock()
	slog.Info("registered", "tag", "game", "uuid", rec.UUID, "username", rec.Username)
	if onRegistered != nil {
		onRegistered(rec.UUID)
	}
	return rec, nil
}

// Battle fights the signed-in player's word against a server-chosen
// opponent. Both stores hold the new elo before it returns. Without a
// loaded session it returns battleerrors.ErrNoSession and sends nothing.
func (a *App) Battle(ctx context.Context) (api.BattleResult, error) {
	user, ok := a.Session.UserData()
	if !ok {
		return api.BattleResult{}, battleerrors.ErrNoSession
	}

	a.mu.Lock()
	a.lastResult = nil
	a.battleErr = ""
	a.battling = true
	a.mu.Unlock()

	res, err := a.client.Battle(ctx, user.UUID)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.battling = false
	if err != nil {
		a.battleErr = api.UserMessage(err)
		slog.Warn("battle failed", "tag", "game", "uuid", user.UUID, "err", err)
		return api.BattleResult{}, err
	}
	a.Session.SetUserData(*res.UserRecord)
	a.Leaderboard.ApplyBattle(res)
	a.lastResult = &res
	slog.Info("battle done", "tag", "game", "uuid", user.UUID,
		"opponent", res.OtherUserRecord.UUID, "elo_change", res.EloChange, "ref", RefOf(res).String())
	return res, nil
}

// TryAnotherWord signs the player out so a new word can be registered.
// In-memory state is cleared even if the token cannot be removed.
func (a *App) TryAnotherWord(ctx context.Context) error {
	a.mu.Lock()
	a.Session.Clear()
	a.resetBattleLocked()
	a.mu.Unlock()
	if err := a.tokens.ClearSessionToken(ctx); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	slog.Info("signed out", "tag", "game")
	return nil
}

// HistoricalBattle fetches a past battle. It does not touch session state.
func (a *App) HistoricalBattle(ctx context.Context, ref BattleRef) (api.BattleResult, error) {
	res, err := a.client.GetBattle(ctx, ref.UUID, ref.Timestamp)
	if err != nil {
		slog.Warn("get battle failed", "tag", "game", "ref", ref.String(), "err", err)
		return api.BattleResult{}, err
	}
	return res, nil
}

// Rank returns the signed-in player's 1-based position on the loaded
// leaderboard.
func (a *App) Rank() (int, error) {
	user, ok := a.Session.UserData()
	if !ok {
		return 0, battleerrors.ErrNoSession
	}
	for i, p := range a.Leaderboard.Players() {
		if p.UUID == user.UUID {
			return i + 1, nil
		}
	}
	return 0, battleerrors.ErrPlayerNotFound
}

// LastResult returns the most recent battle result, if any.
func (a *App) LastResult() (api.BattleResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastResult == nil {
		return api.BattleResult{}, false
	}
	return *a.lastResult, true
}

// BattleErr returns the message of the last failed battle, or "".
func (a *App) BattleErr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.battleErr
}

// Close cancels any leaderboard fetch in flight.
func (a *App) Close() {
	a.Leaderboard.Close()
}

func (a *App) resetBattleLocked() {
	a.lastResult = nil
	a.battleErr = ""
	a.battling = false
}
