package session

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"word-battle/api"
	"word-battle/apitest"
)

// blockingFetcher lets a test hold a GetUser call open.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
	rec     api.UserRecord
}

func (f *blockingFetcher) GetUser(ctx context.Context, id string) (api.UserRecord, error) {
	close(f.started)
	<-f.release
	return f.rec, nil
}

func TestFetchUserData_Success(t *testing.T) {
	srv := apitest.NewServer(t)
	ann := srv.AddUser("Ann", "Dragon", 1200)
	s := NewStore(api.NewClient(srv.Endpoint(), nil))

	if err := s.FetchUserData(context.Background(), ann.UUID); err != nil {
		t.Fatalf("FetchUserData: %v", err)
	}
	got, ok := s.UserData()
	if !ok || got != ann {
		t.Errorf("expected %+v, got %+v (ok=%v)", ann, got, ok)
	}
	if s.Err() != "" {
		t.Errorf("expected no error, got %q", s.Err())
	}
	if s.IsLoading() {
		t.Error("expected loading to be cleared")
	}
}

func TestFetchUserData_FailureKeepsMessageAndReturnsError(t *testing.T) {
	srv := apitest.NewServer(t)
	s := NewStore(api.NewClient(srv.Endpoint(), nil))

	err := s.FetchUserData(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
	if s.Err() != "User not found" {
		t.Errorf("expected server message, got %q", s.Err())
	}
	if _, ok := s.UserData(); ok {
		t.Error("expected no user data after failed fetch")
	}
}

func TestFetchUserData_ClearsPreviousError(t *testing.T) {
	srv := apitest.NewServer(t)
	ann := srv.AddUser("Ann", "Dragon", 1200)
	s := NewStore(api.NewClient(srv.Endpoint(), nil))

	_ = s.FetchUserData(context.Background(), "missing")
	if err := s.FetchUserData(context.Background(), ann.UUID); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if s.Err() != "" {
		t.Errorf("expected error cleared by a successful fetch, got %q", s.Err())
	}
}

func TestFetchUserData_TransportFailureIsGeneric(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(api.GetUserFunc, func(json.RawMessage) (int, any) {
		return http.StatusServiceUnavailable, []byte("upstream down")
	})
	s := NewStore(api.NewClient(srv.Endpoint(), nil))

	if err := s.FetchUserData(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
	if s.Err() != api.UnexpectedErrorMessage {
		t.Errorf("expected generic message, got %q", s.Err())
	}
}

func TestIsLoadingDuringFetch(t *testing.T) {
	f := &blockingFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		rec:     api.UserRecord{UUID: "u1", Username: "Ann", Word: "Dragon", Elo: 1200},
	}
	s := NewStore(f)

	done := make(chan error, 1)
	go func() { done <- s.FetchUserData(context.Background(), "u1") }()

	<-f.started
	if !s.IsLoading() {
		t.Error("expected loading while fetch is in flight")
	}
	close(f.release)
	if err := <-done; err != nil {
		t.Fatalf("FetchUserData: %v", err)
	}
	if s.IsLoading() {
		t.Error("expected loading cleared after fetch")
	}
}

func TestSetUserDataAndApplyElo(t *testing.T) {
	s := NewStore(nil)
	s.SetUserData(api.UserRecord{UUID: "u1", Username: "Ann", Word: "Dragon", Elo: 1200})

	if s.ApplyElo("other", 900) {
		t.Error("ApplyElo should ignore a different uuid")
	}
	if !s.ApplyElo("u1", 1225) {
		t.Fatal("ApplyElo should update the held record")
	}
	got, _ := s.UserData()
	if got.Elo != 1225 {
		t.Errorf("expected elo 1225, got %v", got.Elo)
	}

	s.Clear()
	if _, ok := s.UserData(); ok {
		t.Error("expected no user after Clear")
	}
}
