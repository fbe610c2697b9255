// Package apitest provides an in-memory word-battle RPC server for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"word-battle/api"
)

// EndpointPath is where the fake serves the RPC endpoint.
const EndpointPath = "/dev/app"

// StartingElo is the rank score of a newly registered player.
const StartingElo = 1200

// HandlerFunc overrides one funcName. It receives the raw data payload and
// returns the status code and a JSON-encodable body. A []byte body is written as is.
type HandlerFunc func(data json.RawMessage) (int, any)

// Request is one call received by the server.
type Request struct {
	FuncName  api.FunctionName
	Data      json.RawMessage
	RequestID string
}

// Server is a fake RPC backend. Battles are decided by Outcome (the caller
// wins by default) and move both players by EloDelta.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	users      map[string]*api.UserRecord
	order      []string
	partitions map[string][]string
	battles    map[string]api.BattleResult
	overrides  map[api.FunctionName]HandlerFunc
	requests   []Request
	clock      int64

	// Outcome decides whether user beats other. Set before the first battle.
	Outcome func(user, other api.UserRecord) bool
	// EloDelta is the rank change applied to both sides of a battle.
	EloDelta float64
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:      make(map[string]*api.UserRecord),
		partitions: make(map[string][]string),
		battles:    make(map[string]api.BattleResult),
		overrides:  make(map[api.FunctionName]HandlerFunc),
		clock:      1700000000,
		Outcome:    func(api.UserRecord, api.UserRecord) bool { return true },
		EloDelta:   25,
	}
	r := mux.NewRouter()
	r.HandleFunc(EndpointPath, s.serveRPC).Methods(http.MethodPost)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the full RPC URL.
func (s *Server) Endpoint() string {
	return s.URL + EndpointPath
}

// AddUser registers a player directly and returns its record.
func (s *Server) AddUser(username, word string, elo float64) api.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, word, elo)
}

func (s *Server) addUserLocked(username, word string, elo float64) api.UserRecord {
	rec := &api.UserRecord{UUID: uuid.NewString(), Username: username, Word: word, Elo: elo}
	s.users[rec.UUID] = rec
	s.order = append(s.order, rec.UUID)
	return *rec
}

// SetPartition limits LIST_TOP_USERS for a leaderboard name to the given players.
func (s *Server) SetPartition(name string, uuids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[name] = uuids
}

// User returns the server's current copy of a player.
func (s *Server) User(id string) (api.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return api.UserRecord{}, false
	}
	return *rec, true
}

// Handle replaces the behavior of one funcName.
func (s *Server) Handle(fn api.FunctionName, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[fn] = h
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many calls were received for fn.
func (s *Server) Count(fn api.FunctionName) int {
	n := 0
	for _, r := range s.Requests() {
		if r.FuncName == fn {
			n++
		}
	}
	return n
}

func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request) {
	var env struct {
		FuncName api.FunctionName `json:"funcName"`
		Data     json.RawMessage  `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{FuncName: env.FuncName, Data: env.Data, RequestID: r.Header.Get("X-Request-Id")})
	override := s.overrides[env.FuncName]
	s.mu.Unlock()

	if override != nil {
		status, body := override(env.Data)
		writeJSON(w, status, body)
		return
	}

	var status int
	var body any
	switch env.FuncName {
	case api.RegisterUserFunc:
		status, body = s.registerUser(env.Data)
	case api.GetUserFunc:
		status, body = s.getUser(env.Data)
	case api.BattleFunc:
		status, body = s.battle(env.Data)
	case api.ListTopUsersFunc:
		status, body = s.listTopUsers(env.Data)
	case api.GetBattleFunc:
		status, body = s.getBattle(env.Data)
	default:
		status, body = http.StatusBadRequest, errorBody("Unknown function: "+string(env.FuncName))
	}
	writeJSON(w, status, body)
}

func (s *Server) registerUser(data json.RawMessage) (int, any) {
	var req api.RegisterUserRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return http.StatusBadRequest, errorBody("Invalid request")
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Word) == "" {
		return http.StatusBadRequest, errorBody("Username and word are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, req.Username) {
			return http.StatusBadRequest, errorBody("Username already taken")
		}
	}
	rec := s.addUserLocked(req.Username, req.Word, StartingElo)
	return http.StatusOK, api.UserResponse{UserRecord: &rec}
}

func (s *Server) getUser(data json.RawMessage) (int, any) {
	var req api.GetUserRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return http.StatusBadRequest, errorBody("Invalid request")
	}
	rec, ok := s.User(req.UUID)
	if !ok {
		return http.StatusNotFound, errorBody("User not found")
	}
	return http.StatusOK, api.UserResponse{UserRecord: &rec}
}

func (s *Server) battle(data json.RawMessage) (int, any) {
	var req api.BattleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return http.StatusBadRequest, errorBody("Invalid request")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[req.UUID]
	if !ok {
		return http.StatusNotFound, errorBody("User not found")
	}
	var other *api.UserRecord
	for _, id := range s.order {
		if id != user.UUID {
			other = s.users[id]
			break
		}
	}
	if other == nil {
		return http.StatusBadRequest, errorBody("No opponents available")
	}

	won := s.Outcome(*user, *other)
	delta := s.EloDelta
	winner, loser := user, other
	if !won {
		delta = -delta
		winner, loser = other, user
	}
	user.Elo += delta
	other.Elo -= delta
	s.clock++

	res := api.BattleResult{
		UserRecord:       copyRecord(user),
		OtherUserRecord:  copyRecord(other),
		WinnerUserRecord: copyRecord(winner),
		Message:          fmt.Sprintf("%s overpowered %s!", winner.Word, loser.Word),
		EloChange:        delta,
		Timestamp:        s.clock,
	}
	s.battles[battleKey(user.UUID, s.clock)] = res
	return http.StatusOK, res
}

func (s *Server) listTopUsers(data json.RawMessage) (int, any) {
	var req api.ListTopUsersRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return http.StatusBadRequest, errorBody("Invalid request")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.order
	if req.Leaderboard != "" {
		part, ok := s.partitions[req.Leaderboard]
		if !ok {
			return http.StatusNotFound, errorBody("Leaderboard not found")
		}
		ids = part
	}
	out := make([]api.UserRecord, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Elo > out[j].Elo })
	return http.StatusOK, api.ListTopUsersResponse{UserRecords: &out}
}

func (s *Server) getBattle(data json.RawMessage) (int, any) {
	var req api.GetBattleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return http.StatusBadRequest, errorBody("Invalid request")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.battles[battleKey(req.UUID, req.Timestamp)]
	if !ok {
		return http.StatusNotFound, errorBody("Battle not found")
	}
	return http.StatusOK, res
}

func battleKey(id string, ts int64) string {
	return fmt.Sprintf("%s:%d", id, ts)
}

func copyRecord(u *api.UserRecord) *api.UserRecord {
	c := *u
	return &c
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if raw, ok := body.([]byte); ok {
		w.WriteHeader(status)
		_, _ = w.Write(raw)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
