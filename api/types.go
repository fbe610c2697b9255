package api

import (
	"fmt"
	"math"
)

// FunctionName discriminates calls to the single RPC endpoint.
type FunctionName string

const (
	RegisterUserFunc FunctionName = "REGISTER_USER"
	GetUserFunc      FunctionName = "GET_USER"
	BattleFunc       FunctionName = "BATTLE"
	ListTopUsersFunc FunctionName = "LIST_TOP_USERS"
	GetBattleFunc    FunctionName = "GET_BATTLE"
)

// Envelope is the request body sent for every call.
type Envelope struct {
	FuncName FunctionName `json:"funcName"`
	Data     any          `json:"data"`
}

// UserRecord is a registered player as returned by the server.
type UserRecord struct {
	UUID     string  `json:"uuid"`
	Username string  `json:"username"`
	Word     string  `json:"word"`
	Elo      float64 `json:"elo"`
}

// RoundedElo is the rank score as shown to players.
func (u UserRecord) RoundedElo() int {
	return int(math.Round(u.Elo))
}

// Validate checks the fields the client relies on.
func (u UserRecord) Validate() error {
	if u.UUID == "" {
		return fmt.Errorf("user record has no uuid")
	}
	return nil
}

// RegisterUserRequest is the REGISTER_USER payload.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Word     string `json:"word"`
}

// GetUserRequest is the GET_USER payload.
type GetUserRequest struct {
	UUID string `json:"uuid"`
}

// BattleRequest is the BATTLE payload.
type BattleRequest struct {
	UUID string `json:"uuid"`
}

// ListTopUsersRequest is the LIST_TOP_USERS payload. An empty Leaderboard
// lists all players.
type ListTopUsersRequest struct {
	Leaderboard string `json:"leaderboard,omitempty"`
}

// GetBattleRequest is the GET_BATTLE payload.
type GetBattleRequest struct {
	UUID      string `json:"uuid"`
	Timestamp int64  `json:"timestamp"`
}

// UserResponse is returned by REGISTER_USER and GET_USER.
type UserResponse struct {
	UserRecord *UserRecord `json:"userRecord"`
}

// Validate checks that a user record is present and usable.
func (r UserResponse) Validate() error {
	if r.UserRecord == nil {
		return fmt.Errorf("missing userRecord")
	}
	return r.UserRecord.Validate()
}

// ListTopUsersResponse is returned by LIST_TOP_USERS.
type ListTopUsersResponse struct {
	UserRecords *[]UserRecord `json:"userRecords"`
}

// Validate checks that the list is present and every record has a uuid.
func (r ListTopUsersResponse) Validate() error {
	if r.UserRecords == nil {
		return fmt.Errorf("missing userRecords")
	}
	for i, rec := range *r.UserRecords {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("userRecords[%d]: %w", i, err)
		}
	}
	return nil
}

// BattleResult is returned by BATTLE and GET_BATTLE.
type BattleResult struct {
	UserRecord       *UserRecord `json:"userRecord"`
	OtherUserRecord  *UserRecord `json:"otherUserRecord"`
	WinnerUserRecord *UserRecord `json:"winnerUserRecord"`
	Message          string      `json:"message"`
	EloChange        float64     `json:"eloChange"`
	Timestamp        int64       `json:"timestamp"`
}

// Validate checks that all three participant records are present.
func (b BattleResult) Validate() error {
	fields := []struct {
		name string
		rec  *UserRecord
	}{
		{"userRecord", b.UserRecord},
		{"otherUserRecord", b.OtherUserRecord},
		{"winnerUserRecord", b.WinnerUserRecord},
	}
	for _, f := range fields {
		if f.rec == nil {
			return fmt.Errorf("missing %s", f.name)
		}
		if err := f.rec.Validate(); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// Won reports whether the requesting user won the battle.
func (b BattleResult) Won() bool {
	return b.EloChange > 0
}

// RoundedEloChange is |eloChange| rounded to the nearest integer.
func (b BattleResult) RoundedEloChange() int {
	return int(math.Round(math.Abs(b.EloChange)))
}

type validator interface {
	Validate() error
}
