// Package tui is the interactive terminal front end: registration, the
// battle screen with its scoreboard, and the historical battle view.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"word-battle/api"
	"word-battle/battleerrors"
	"word-battle/game"
	"word-battle/leaderboard"
	"word-battle/render"
)

type screen int

const (
	screenLoading screen = iota
	screenRegister
	screenGame
	screenHistory
)

// Options configures the terminal UI.
type Options struct {
	// Partitions are the leaderboards the selector cycles through; "" is all players.
	Partitions   []string
	ShareBaseURL string
	Radius       int
	TopN         int
}

type resumedMsg struct{ err error }

type registeredMsg struct {
	rec api.UserRecord
	err error
}

type battleDoneMsg struct{ err error }

type leaderboardMsg struct{ err error }

type historyMsg struct {
	ref game.BattleRef
	res api.BattleResult
	err error
}

type resetMsg struct{ err error }

// history is the state of the historical battle view.
type history struct {
	ref     game.BattleRef
	result  *api.BattleResult
	err     string
	loading bool
}

// Model is the bubbletea model.
type Model struct {
	ctx  context.Context
	app  *game.App
	opts Options

	screen     screen
	resumed    bool
	username   textinput.Model
	word       textinput.Model
	formErr    string
	submitting bool
	notice     string

	scoreboard *leaderboard.Scoreboard
	history    *history
}

// New returns the model. A non-nil ref opens the historical view first.
func New(ctx context.Context, app *game.App, opts Options, ref *game.BattleRef) *Model {
	if len(opts.Partitions) == 0 {
		opts.Partitions = []string{""}
	}

	username := textinput.New()
	username.Placeholder = "Username"
	username.Prompt = "Username: "
	username.CharLimit = 32
	username.Width = 32
	username.Focus()

	word := textinput.New()
	word.Placeholder = "Battle word"
	word.Prompt = "Battle word: "
	word.CharLimit = 32
	word.Width = 32

	m := &Model{
		ctx:        ctx,
		app:        app,
		opts:       opts,
		screen:     screenLoading,
		username:   username,
		word:       word,
		scoreboard: leaderboard.NewScoreboard(opts.Radius, opts.TopN),
	}
	if ref != nil {
		m.screen = screenHistory
		m.history = &history{ref: *ref, loading: true}
	}
	return m
}

// Init loads the session, or only the historical battle when a ref was
// given. The session is resumed once the player leaves that view.
func (m *Model) Init() tea.Cmd {
	if m.history != nil {
		return tea.Batch(textinput.Blink, historyCmd(m.ctx, m.app, m.history.ref))
	}
	return tea.Batch(textinput.Blink, resumeCmd(m.ctx, m.app))
}

func resumeCmd(ctx context.Context, app *game.App) tea.Cmd {
	return func() tea.Msg {
		return resumedMsg{err: app.Resume(ctx)}
	}
}

func registerCmd(ctx context.Context, app *game.App, username, word string) tea.Cmd {
	return func() tea.Msg {
		rec, err := app.Register(ctx, username, word, nil)
		return registeredMsg{rec: rec, err: err}
	}
}

func battleCmd(ctx context.Context, app *game.App) tea.Cmd {
	return func() tea.Msg {
		_, err := app.Battle(ctx)
		return battleDoneMsg{err: err}
	}
}

func partitionCmd(ctx context.Context, app *game.App, partition string) tea.Cmd {
	return func() tea.Msg {
		return leaderboardMsg{err: app.Leaderboard.SetPartition(ctx, partition)}
	}
}

func refreshCmd(ctx context.Context, app *game.App) tea.Cmd {
	return func() tea.Msg {
		return leaderboardMsg{err: app.Leaderboard.Refresh(ctx)}
	}
}

func historyCmd(ctx context.Context, app *game.App, ref game.BattleRef) tea.Cmd {
	return func() tea.Msg {
		res, err := app.HistoricalBattle(ctx, ref)
		return historyMsg{ref: ref, res: res, err: err}
	}
}

func resetCmd(ctx context.Context, app *game.App) tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: app.TryAnotherWord(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyCtrlC {
		m.app.Close()
		return m, tea.Quit
	}

	// Results arrive regardless of which screen is showing.
	switch msg := msg.(type) {
	case resumedMsg:
		m.resumed = true
		if m.screen == screenHistory {
			return m, nil
		}
		m.screen = m.landingScreen()
		if msg.err != nil && !errors.Is(msg.err, battleerrors.ErrNoSession) {
			m.formErr = render.ErrorMessage(msg.err)
		}
		return m, nil
	case historyMsg:
		if m.history == nil || m.history.ref != msg.ref {
			return m, nil
		}
		m.history.loading = false
		if msg.err != nil {
			m.history.err = render.HistoryFailed
			return m, nil
		}
		m.history.result = &msg.res
		return m, nil
	case leaderboardMsg:
		if msg.err != nil {
			slog.Warn("leaderboard refresh failed", "tag", "tui", "err", msg.err)
		}
		return m, nil
	}

	switch m.screen {
	case screenRegister:
		return m.updateRegister(msg)
	case screenGame:
		return m.updateGame(msg)
	case screenHistory:
		return m.updateHistory(msg)
	default:
		return m, nil
	}
}

// landingScreen is where the history view's Back and a finished resume lead.
func (m *Model) landingScreen() screen {
	if !m.resumed {
		return screenLoading
	}
	if _, ok := m.app.Session.UserData(); ok {
		return screenGame
	}
	return screenRegister
}

func (m *Model) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case registeredMsg:
		m.submitting = false
		if msg.err != nil {
			m.formErr = render.ErrorMessage(msg.err)
			return m, nil
		}
		m.formErr = ""
		m.username.SetValue("")
		m.word.SetValue("")
		m.screen = screenGame
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			m.app.Close()
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			return m, m.switchField()
		case tea.KeyEnter:
			if m.username.Focused() {
				return m, m.switchField()
			}
			if m.submitting {
				return m, nil
			}
			username, word := m.username.Value(), m.word.Value()
			if strings.TrimSpace(username) == "" || strings.TrimSpace(word) == "" {
				m.formErr = render.MissingFieldMessage
				return m, nil
			}
			m.submitting = true
			m.formErr = ""
			return m, registerCmd(m.ctx, m.app, username, word)
		}
	}

	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.word, cmd = m.word.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchField() tea.Cmd {
	if m.username.Focused() {
		m.username.Blur()
		return m.word.Focus()
	}
	m.word.Blur()
	return m.username.Focus()
}

func (m *Model) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case battleDoneMsg:
		if msg.err != nil && errors.Is(msg.err, battleerrors.ErrNoSession) {
			m.screen = screenRegister
		}
		return m, nil

	case resetMsg:
		if msg.err != nil {
			slog.Warn("reset failed", "tag", "tui", "err", msg.err)
		}
		m.notice = ""
		m.scoreboard.ShowAll = false
		m.screen = screenRegister
		m.word.Blur()
		return m, tea.Batch(m.username.Focus(), refreshCmd(m.ctx, m.app))

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			m.app.Close()
			return m, tea.Quit
		case "b", "enter", " ":
			if m.app.Snapshot().Battle.Battling {
				return m, nil
			}
			m.notice = ""
			return m, battleCmd(m.ctx, m.app)
		case "t":
			m.scoreboard.Toggle()
			return m, nil
		case "p":
			next := m.nextPartition()
			m.notice = "Leaderboard: " + partitionLabel(next)
			return m, partitionCmd(m.ctx, m.app, next)
		case "r":
			return m, refreshCmd(m.ctx, m.app)
		case "n":
			return m, resetCmd(m.ctx, m.app)
		}
	}
	return m, nil
}

func (m *Model) nextPartition() string {
	current := m.app.Leaderboard.Partition()
	for i, p := range m.opts.Partitions {
		if p == current {
			return m.opts.Partitions[(i+1)%len(m.opts.Partitions)]
		}
	}
	return m.opts.Partitions[0]
}

func partitionLabel(p string) string {
	if p == "" {
		return "all players"
	}
	return p
}

func (m *Model) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "backspace", "b":
			m.history = nil
			m.screen = m.landingScreen()
			if !m.resumed {
				return m, resumeCmd(m.ctx, m.app)
			}
			return m, nil
		case "q":
			m.app.Close()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) View() string {
	switch m.screen {
	case screenLoading:
		return render.LoadingUser + "\n"
	case screenRegister:
		return m.viewRegister()
	case screenGame:
		return m.viewGame()
	case screenHistory:
		return m.viewHistory()
	default:
		return "Unknown screen.\n"
	}
}

func (m *Model) viewRegister() string {
	var b strings.Builder
	b.WriteString(render.Title + "\n\n")
	b.WriteString(m.username.View() + "\n")
	b.WriteString(m.word.View() + "\n\n")
	if m.submitting {
		b.WriteString("Registering...\n")
	}
	if m.formErr != "" {
		b.WriteString(render.Error(m.formErr) + "\n")
	}
	snap := m.app.Snapshot()
	b.WriteString("\n" + render.Scoreboard(m.scoreboard.Build(snap.Leaderboard.Players, ""), snap.Leaderboard) + "\n\n")
	b.WriteString(render.Hint("enter: next/register  tab: switch field  esc: quit") + "\n")
	return b.String()
}

func (m *Model) viewGame() string {
	snap := m.app.Snapshot()
	var b strings.Builder
	b.WriteString(render.UserCard(snap.User) + "\n\n")

	switch {
	case snap.Battle.Battling:
		b.WriteString("Battling...\n\n")
	case snap.Battle.Err != "":
		b.WriteString(render.Error(snap.Battle.Err) + "\n\n")
	case snap.Battle.Result != nil:
		b.WriteString(render.BattleCard(*snap.Battle.Result, m.shareLink(*snap.Battle.Result)) + "\n\n")
	}

	b.WriteString(render.Scoreboard(m.scoreboard.Build(snap.Leaderboard.Players, snap.CurrentID()), snap.Leaderboard) + "\n\n")
	if m.notice != "" {
		b.WriteString(render.Hint(m.notice) + "\n")
	}
	toggle := "t: show all"
	if m.scoreboard.ShowAll {
		toggle = "t: show less"
	}
	b.WriteString(render.Hint("b: battle  "+toggle+"  p: leaderboard  r: refresh  n: try another word  q: quit") + "\n")
	return b.String()
}

func (m *Model) shareLink(res api.BattleResult) string {
	ref := game.RefOf(res)
	if m.opts.ShareBaseURL == "" {
		return ref.String()
	}
	link, err := game.ShareURL(m.opts.ShareBaseURL, ref)
	if err != nil {
		return ref.String()
	}
	return link
}

func (m *Model) viewHistory() string {
	var b strings.Builder
	b.WriteString(render.Title + "\n\n")
	switch {
	case m.history.loading:
		b.WriteString("Loading battle " + m.history.ref.String() + "...\n")
	case m.history.err != "":
		b.WriteString(render.Error(m.history.err) + "\n")
	case m.history.result != nil:
		b.WriteString(render.BattleCard(*m.history.result, "") + "\n")
	}
	b.WriteString("\n" + render.Hint("esc: back  q: quit") + "\n")
	return b.String()
}

// Run starts the terminal UI and blocks until the player quits.
func Run(ctx context.Context, app *game.App, opts Options, ref *game.BattleRef) error {
	p := tea.NewProgram(New(ctx, app, opts, ref), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
