package leaderboard

import (
	"fmt"
	"testing"

	"word-battle/api"
)

func board(n int) []api.UserRecord {
	out := make([]api.UserRecord, n)
	for i := range out {
		out[i] = rec(fmt.Sprintf("p%d", i), float64(2000-i))
	}
	return out
}

func TestWindowBounds(t *testing.T) {
	for n := 1; n <= 20; n++ {
		players := board(n)
		sb := NewScoreboard(DefaultRadius, DefaultTopN)
		for i := 0; i < n; i++ {
			v := sb.Build(players, players[i].UUID)
			wantStart, wantEnd := max(0, i-5), min(n, i+6)
			if v.Start != wantStart || v.End != wantEnd {
				t.Fatalf("n=%d i=%d: expected [%d,%d), got [%d,%d)", n, i, wantStart, wantEnd, v.Start, v.End)
			}
			if len(v.Entries) != wantEnd-wantStart {
				t.Fatalf("n=%d i=%d: expected %d entries, got %d", n, i, wantEnd-wantStart, len(v.Entries))
			}
			if v.EllipsisTop != (wantStart != 0) || v.EllipsisBottom != (wantEnd != n) {
				t.Fatalf("n=%d i=%d: wrong ellipses top=%v bottom=%v", n, i, v.EllipsisTop, v.EllipsisBottom)
			}
			if v.Rank != i+1 {
				t.Fatalf("n=%d i=%d: expected rank %d, got %d", n, i, i+1, v.Rank)
			}
		}
	}
}

func TestWindowMarksCurrentPlayer(t *testing.T) {
	players := board(15)
	v := NewScoreboard(DefaultRadius, DefaultTopN).Build(players, "p7")

	current := 0
	for _, e := range v.Entries {
		if e.IsCurrent {
			current++
			if e.Player.UUID != "p7" || e.Position != 8 {
				t.Errorf("wrong current entry: %+v", e)
			}
		}
	}
	if current != 1 {
		t.Errorf("expected exactly one current entry, got %d", current)
	}
	if v.Entries[0].Position != 3 {
		t.Errorf("expected window to start at position 3, got %d", v.Entries[0].Position)
	}
}

func TestToggleShowsAllAndRestores(t *testing.T) {
	players := board(25)
	sb := NewScoreboard(DefaultRadius, DefaultTopN)

	before := sb.Build(players, "p12")
	if !before.CanToggle || before.ShowAll {
		t.Fatalf("expected toggleable windowed view: %+v", before)
	}

	sb.Toggle()
	all := sb.Build(players, "p12")
	if len(all.Entries) != 25 || all.Start != 0 || all.End != 25 {
		t.Errorf("show all should list every player, got [%d,%d) with %d entries", all.Start, all.End, len(all.Entries))
	}
	if all.EllipsisTop || all.EllipsisBottom {
		t.Error("show all should not render ellipses")
	}
	if all.Rank != 13 {
		t.Errorf("expected rank 13, got %d", all.Rank)
	}

	sb.Toggle()
	after := sb.Build(players, "p12")
	if after.Start != before.Start || after.End != before.End ||
		after.EllipsisTop != before.EllipsisTop || after.EllipsisBottom != before.EllipsisBottom {
		t.Errorf("toggling back changed the window: before %+v after %+v", before, after)
	}
}

func TestAnonymousTopN(t *testing.T) {
	sb := NewScoreboard(DefaultRadius, DefaultTopN)

	v := sb.Build(board(25), "")
	if !v.Anonymous || v.CanToggle || v.Rank != 0 {
		t.Errorf("unexpected anonymous view: %+v", v)
	}
	if len(v.Entries) != 10 || v.Entries[0].Position != 1 {
		t.Errorf("expected top 10, got %d entries", len(v.Entries))
	}

	sb.Toggle()
	if v := sb.Build(board(25), ""); len(v.Entries) != 10 {
		t.Errorf("toggle should not affect the anonymous listing, got %d entries", len(v.Entries))
	}

	if v := sb.Build(board(3), ""); len(v.Entries) != 3 {
		t.Errorf("expected short list in full, got %d entries", len(v.Entries))
	}
}

func TestCurrentPlayerNotListed(t *testing.T) {
	v := NewScoreboard(DefaultRadius, DefaultTopN).Build(board(8), "missing")
	if !v.NotFound || len(v.Entries) != 0 || v.Rank != 0 {
		t.Errorf("expected not-found state, got %+v", v)
	}
}

func TestNewScoreboardDefaults(t *testing.T) {
	sb := NewScoreboard(-1, 0)
	if sb.Radius != DefaultRadius || sb.TopN != DefaultTopN {
		t.Errorf("expected defaults, got radius=%d topN=%d", sb.Radius, sb.TopN)
	}
	if sb := NewScoreboard(0, 3); sb.Radius != 0 {
		t.Errorf("radius 0 should be kept, got %d", sb.Radius)
	}
}
