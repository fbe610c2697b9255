// Package render draws the word-battle cards and scoreboard as terminal text.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"word-battle/api"
	"word-battle/battleerrors"
	"word-battle/game"
	"word-battle/leaderboard"
)

const (
	Title               = "word-battle.com"
	LoadingUser         = "Loading user data..."
	LoadingBoard        = "Loading..."
	HistoryFailed       = "Failed to fetch battle data"
	PlayerNotFound      = "Current player not found on the leaderboard"
	MissingFieldMessage = "Please enter both a username and a battle word"
	Ellipsis            = "..."
)

var (
	clrBorder = lipgloss.Color("#30363d")
	clrSubtle = lipgloss.Color("#8b949e")
	clrGold   = lipgloss.Color("#e3b341")
	clrGreen  = lipgloss.Color("#3fb950")
	clrRed    = lipgloss.Color("#f85149")
	clrTitle  = lipgloss.Color("#58a6ff")

	titleStyle   = lipgloss.NewStyle().Foreground(clrTitle).Bold(true)
	wordStyle    = lipgloss.NewStyle().Foreground(clrGold).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(clrSubtle)
	errorStyle   = lipgloss.NewStyle().Foreground(clrRed)
	upStyle      = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)
	downStyle    = lipgloss.NewStyle().Foreground(clrRed).Bold(true)
	currentStyle = lipgloss.NewStyle().Foreground(clrGold).Bold(true)
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrBorder).
			Padding(0, 1)
)

// Arrow renders an elo change as "↑ n" for a gain and "↓ n" otherwise,
// where n is the rounded magnitude.
func Arrow(delta float64) string {
	res := api.BattleResult{EloChange: delta}
	if res.Won() {
		return upStyle.Render(fmt.Sprintf("↑ %d", res.RoundedEloChange()))
	}
	return downStyle.Render(fmt.Sprintf("↓ %d", res.RoundedEloChange()))
}

// BattleCard renders a battle result. A non-empty share line is appended.
func BattleCard(res api.BattleResult, share string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Battle Result"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s vs %s\n", wordStyle.Render(wordOf(res.UserRecord)), wordStyle.Render(wordOf(res.OtherUserRecord)))
	fmt.Fprintf(&b, "Winner: %s\n", wordStyle.Render(wordOf(res.WinnerUserRecord)))
	if res.Message != "" {
		b.WriteString(res.Message)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "ELO Change: %s", Arrow(res.EloChange))
	if share != "" {
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render("Share: " + share))
	}
	return cardStyle.Render(b.String())
}

// UserCard renders the signed-in player's greeting, word and rounded elo.
func UserCard(u game.UserView) string {
	if u.Loading {
		return LoadingUser
	}
	if !u.SignedIn {
		if u.Err != "" {
			return errorStyle.Render(u.Err)
		}
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Welcome, %s!\n", u.Record.Username)
	fmt.Fprintf(&b, "Your battle word: %s\n", wordStyle.Render(u.Record.Word))
	fmt.Fprintf(&b, "Current Rank: %d", u.Record.RoundedElo())
	return b.String()
}

// ScoreLine renders one leaderboard entry: "<pos>. <elo> - <word> (<username>)".
func ScoreLine(e leaderboard.Entry) string {
	line := fmt.Sprintf("%d. %d - %s (%s)", e.Position, e.Player.RoundedElo(), e.Player.Word, e.Player.Username)
	if e.IsCurrent {
		return currentStyle.Render(line + " <- you")
	}
	return line
}

// Scoreboard renders a leaderboard view. lb supplies load state and partition.
func Scoreboard(v leaderboard.View, lb game.LeaderboardView) string {
	var b strings.Builder
	heading := "Leaderboard"
	if v.Anonymous {
		heading = fmt.Sprintf("Top %d Players", len(v.Entries))
	}
	if lb.Partition != "" {
		heading += " (" + lb.Partition + ")"
	}
	b.WriteString(titleStyle.Render(heading))
	b.WriteString("\n")

	switch {
	case lb.Err != "" && len(lb.Players) == 0:
		b.WriteString(errorStyle.Render(lb.Err))
		return b.String()
	case len(lb.Players) == 0 && !lb.Loaded:
		b.WriteString(LoadingBoard)
		return b.String()
	case v.NotFound:
		b.WriteString(subtleStyle.Render(PlayerNotFound))
		return b.String()
	}

	if v.Rank > 0 {
		fmt.Fprintf(&b, "Your position: #%d of %d\n", v.Rank, v.Total)
	}
	lines := make([]string, 0, len(v.Entries)+2)
	if v.EllipsisTop {
		lines = append(lines, subtleStyle.Render(Ellipsis))
	}
	for _, e := range v.Entries {
		lines = append(lines, ScoreLine(e))
	}
	if v.EllipsisBottom {
		lines = append(lines, subtleStyle.Render(Ellipsis))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// ErrorMessage returns the text to show for err.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, battleerrors.ErrMissingField):
		return MissingFieldMessage
	default:
		return api.UserMessage(err)
	}
}

// Error styles a message as an error line.
func Error(msg string) string {
	return errorStyle.Render(msg)
}

// Hint styles a line of key help.
func Hint(msg string) string {
	return subtleStyle.Render(msg)
}

func wordOf(u *api.UserRecord) string {
	if u == nil {
		return "?"
	}
	return u.Word
}
