package leaderboard

import "word-battle/api"

const (
	// DefaultRadius is how many players are shown on each side of the current one.
	DefaultRadius = 5
	// DefaultTopN is how many players an anonymous visitor sees.
	DefaultTopN = 10
)

// Entry is one scoreboard line.
type Entry struct {
	Position  int // 1-based
	Player    api.UserRecord
	IsCurrent bool
}

// View is what the scoreboard shows for a given list and player.
type View struct {
	Entries []Entry
	// Rank is the current player's 1-based position, 0 if unknown.
	Rank int
	// Start and End bound Entries within the full list, end exclusive.
	Start, End int
	Total      int

	EllipsisTop    bool
	EllipsisBottom bool

	// NotFound is set when a player is signed in but not listed.
	NotFound bool
	// Anonymous is set when nobody is signed in; Entries is the top N.
	Anonymous bool
	CanToggle bool
	ShowAll   bool
}

// Scoreboard turns the sorted leaderboard into a View around the current
// player, optionally expanded to the whole list.
type Scoreboard struct {
	Radius  int
	TopN    int
	ShowAll bool
}

// NewScoreboard returns a windowed scoreboard. Non-positive topN and
// negative radius fall back to the defaults.
func NewScoreboard(radius, topN int) *Scoreboard {
	if radius < 0 {
		radius = DefaultRadius
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Scoreboard{Radius: radius, TopN: topN}
}

// Toggle switches between the window and the full list.
func (b *Scoreboard) Toggle() {
	b.ShowAll = !b.ShowAll
}

// Window returns the bounds [start, end) of the players within radius of index i.
func Window(i, n, radius int) (start, end int) {
	start = max(0, i-radius)
	end = min(n, i+radius+1)
	return start, end
}

// Build computes the view of players for the player currentID ("" when
// nobody is signed in).
func (b *Scoreboard) Build(players []api.UserRecord, currentID string) View {
	n := len(players)
	v := View{Total: n}

	if currentID == "" {
		v.Anonymous = true
		v.Start, v.End = 0, min(n, b.TopN)
		v.Entries = entries(players, v.Start, v.End, "")
		return v
	}

	i := -1
	for idx, p := range players {
		if p.UUID == currentID {
			i = idx
			break
		}
	}
	if i < 0 {
		v.NotFound = true
		return v
	}

	v.Rank = i + 1
	v.CanToggle = true
	v.ShowAll = b.ShowAll
	if b.ShowAll {
		v.Start, v.End = 0, n
	} else {
		v.Start, v.End = Window(i, n, b.Radius)
		v.EllipsisTop = v.Start != 0
		v.EllipsisBottom = v.End != n
	}
	v.Entries = entries(players, v.Start, v.End, currentID)
	return v
}

func entries(players []api.UserRecord, start, end int, currentID string) []Entry {
	out := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, Entry{
			Position:  i + 1,
			Player:    players[i],
			IsCurrent: currentID != "" && players[i].UUID == currentID,
		})
	}
	return out
}
