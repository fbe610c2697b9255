package game

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"word-battle/api"
)

// BattleRefParam is the query parameter carrying a shared battle reference.
const BattleRefParam = "battleUuid"

// BattleRef identifies a past battle by the requesting player and its timestamp.
// Its text form is "<uuid>:<timestamp>".
type BattleRef struct {
	UUID      string
	Timestamp int64
}

func (r BattleRef) String() string {
	return r.UUID + ":" + strconv.FormatInt(r.Timestamp, 10)
}

// RefOf returns the shareable reference of a battle result.
func RefOf(res api.BattleResult) BattleRef {
	ref := BattleRef{Timestamp: res.Timestamp}
	if res.UserRecord != nil {
		ref.UUID = res.UserRecord.UUID
	}
	return ref
}

// ParseBattleRef parses "<uuid>:<timestamp>". The timestamp follows the last
// colon. ok is false for empty or malformed input.
func ParseBattleRef(s string) (BattleRef, bool) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return BattleRef{}, false
	}
	ts, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return BattleRef{}, false
	}
	return BattleRef{UUID: s[:i], Timestamp: ts}, true
}

// RefFromURL reads the battleUuid query parameter of rawURL.
func RefFromURL(rawURL string) (BattleRef, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return BattleRef{}, false
	}
	return ParseBattleRef(u.Query().Get(BattleRefParam))
}

// LookupBattleRef accepts either a share link or a bare reference.
func LookupBattleRef(arg string) (BattleRef, bool) {
	if strings.Contains(arg, BattleRefParam+"=") {
		return RefFromURL(arg)
	}
	return ParseBattleRef(arg)
}

// ShareURL returns base with the battleUuid parameter set to ref.
func ShareURL(base string, ref BattleRef) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse share base url: %w", err)
	}
	q := u.Query()
	q.Del(BattleRefParam)
	raw := q.Encode()
	if raw != "" {
		raw += "&"
	}
	u.RawQuery = raw + BattleRefParam + "=" + url.QueryEscape(ref.UUID) + ":" + strconv.FormatInt(ref.Timestamp, 10)
	return u.String(), nil
}
