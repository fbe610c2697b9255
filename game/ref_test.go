package game

import (
	"testing"

	"word-battle/api"
)

func TestParseBattleRef(t *testing.T) {
	tests := []struct {
		in   string
		want BattleRef
		ok   bool
	}{
		{"abc:1700000000", BattleRef{UUID: "abc", Timestamp: 1700000000}, true},
		{" abc:42 ", BattleRef{UUID: "abc", Timestamp: 42}, true},
		{"a:b:c:7", BattleRef{UUID: "a:b:c", Timestamp: 7}, true},
		{"", BattleRef{}, false},
		{"abc", BattleRef{}, false},
		{"abc:", BattleRef{}, false},
		{":1700000000", BattleRef{}, false},
		{"abc:17000x", BattleRef{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseBattleRef(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseBattleRef(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBattleRefString(t *testing.T) {
	ref := BattleRef{UUID: "abc", Timestamp: 1700000000}
	if got := ref.String(); got != "abc:1700000000" {
		t.Errorf("expected abc:1700000000, got %q", got)
	}
	back, ok := ParseBattleRef(ref.String())
	if !ok || back != ref {
		t.Errorf("expected %+v after parse, got %+v", ref, back)
	}
}

func TestRefFromURL(t *testing.T) {
	ref, ok := RefFromURL("https://word-battle.com/?battleUuid=abc:1700000000")
	if !ok || ref.UUID != "abc" || ref.Timestamp != 1700000000 {
		t.Errorf("unexpected ref %+v (ok=%v)", ref, ok)
	}
	if _, ok := RefFromURL("https://word-battle.com/"); ok {
		t.Error("expected no ref without the parameter")
	}
	if _, ok := RefFromURL("https://word-battle.com/?battleUuid=nope"); ok {
		t.Error("expected malformed parameter to be rejected")
	}
}

func TestLookupBattleRef(t *testing.T) {
	if ref, ok := LookupBattleRef("https://word-battle.com/?battleUuid=u1:5"); !ok || ref.UUID != "u1" || ref.Timestamp != 5 {
		t.Errorf("link: got %+v (ok=%v)", ref, ok)
	}
	if ref, ok := LookupBattleRef("u1:5"); !ok || ref.UUID != "u1" {
		t.Errorf("bare ref: got %+v (ok=%v)", ref, ok)
	}
}

func TestShareURL(t *testing.T) {
	ref := BattleRef{UUID: "u1", Timestamp: 1700000001}
	got, err := ShareURL("https://word-battle.com/", ref)
	if err != nil {
		t.Fatalf("ShareURL: %v", err)
	}
	if got != "https://word-battle.com/?battleUuid=u1:1700000001" {
		t.Errorf("unexpected link %q", got)
	}

	got, err = ShareURL("https://word-battle.com/play?battleUuid=old:1&lang=en", ref)
	if err != nil {
		t.Fatalf("ShareURL: %v", err)
	}
	if back, ok := RefFromURL(got); !ok || back != ref {
		t.Errorf("expected %+v from %q, got %+v", ref, got, back)
	}
}

func TestRefOf(t *testing.T) {
	res := api.BattleResult{UserRecord: &api.UserRecord{UUID: "u1"}, Timestamp: 9}
	if got := RefOf(res); got != (BattleRef{UUID: "u1", Timestamp: 9}) {
		t.Errorf("unexpected ref %+v", got)
	}
}
