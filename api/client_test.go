package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"word-battle/api"
	"word-battle/apitest"
)

func TestRegisterUser_SendsEnvelope(t *testing.T) {
	srv := apitest.NewServer(t)
	c := api.NewClient(srv.Endpoint(), nil)

	rec, err := c.RegisterUser(context.Background(), "Ann", "Dragon")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if rec.UUID == "" || rec.Username != "Ann" || rec.Word != "Dragon" || rec.Elo != apitest.StartingElo {
		t.Errorf("unexpected record: %+v", rec)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].FuncName != api.RegisterUserFunc {
		t.Errorf("expected funcName REGISTER_USER, got %q", reqs[0].FuncName)
	}
	var data api.RegisterUserRequest
	if err := json.Unmarshal(reqs[0].Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Username != "Ann" || data.Word != "Dragon" {
		t.Errorf("unexpected payload: %+v", data)
	}
	if reqs[0].RequestID == "" {
		t.Error("expected a request id header")
	}
}

func TestCall_APIErrorMessageVerbatim(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("Ann", "Dragon", 1200)
	c := api.NewClient(srv.Endpoint(), nil)

	_, err := c.RegisterUser(context.Background(), "ann", "Phoenix")
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.Status)
	}
	if got := api.UserMessage(err); got != "Username already taken" {
		t.Errorf("expected server message verbatim, got %q", got)
	}
}

func TestCall_ErrorWithoutMessage(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(api.GetUserFunc, func(json.RawMessage) (int, any) {
		return http.StatusInternalServerError, map[string]string{"detail": "nope"}
	})
	c := api.NewClient(srv.Endpoint(), nil)

	_, err := c.GetUser(context.Background(), "u1")
	if !api.IsAPIError(err) {
		t.Fatalf("expected API error, got %v", err)
	}
	if got := api.UserMessage(err); got != api.UnknownErrorMessage {
		t.Errorf("expected %q, got %q", api.UnknownErrorMessage, got)
	}
}

func TestCall_NonJSONBodyIsTransportError(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(api.GetUserFunc, func(json.RawMessage) (int, any) {
		return http.StatusBadGateway, []byte("<html>bad gateway</html>")
	})
	c := api.NewClient(srv.Endpoint(), nil)

	_, err := c.GetUser(context.Background(), "u1")
	var tErr *api.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if got := api.UserMessage(err); got != api.UnexpectedErrorMessage {
		t.Errorf("expected generic message, got %q", got)
	}
}

func TestCall_UnreachableServerIsTransportError(t *testing.T) {
	srv := apitest.NewServer(t)
	endpoint := srv.Endpoint()
	srv.Close()

	_, err := api.NewClient(endpoint, nil).GetUser(context.Background(), "u1")
	var tErr *api.TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
}

func TestCall_SchemaMismatchIsAPIError(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(api.BattleFunc, func(json.RawMessage) (int, any) {
		return http.StatusOK, map[string]any{"message": "no records", "eloChange": 3}
	})
	c := api.NewClient(srv.Endpoint(), nil)

	_, err := c.Battle(context.Background(), "u1")
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError for schema mismatch, got %T: %v", err, err)
	}
	if apiErr.FuncName != api.BattleFunc {
		t.Errorf("expected BATTLE in error, got %q", apiErr.FuncName)
	}
}

func TestListTopUsers_MissingListIsRejected(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Handle(api.ListTopUsersFunc, func(json.RawMessage) (int, any) {
		return http.StatusOK, map[string]any{}
	})

	_, err := api.NewClient(srv.Endpoint(), nil).ListTopUsers(context.Background(), "")
	if !api.IsAPIError(err) {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestListTopUsers_Partition(t *testing.T) {
	srv := apitest.NewServer(t)
	a := srv.AddUser("Ann", "Dragon", 1300)
	srv.AddUser("Bob", "Knight", 1250)
	c := srv.AddUser("Cid", "Wizard", 1400)
	srv.SetPartition("weekly", a.UUID, c.UUID)
	client := api.NewClient(srv.Endpoint(), nil)

	all, err := client.ListTopUsers(context.Background(), "")
	if err != nil {
		t.Fatalf("ListTopUsers: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 players, got %d", len(all))
	}

	weekly, err := client.ListTopUsers(context.Background(), "weekly")
	if err != nil {
		t.Fatalf("ListTopUsers(weekly): %v", err)
	}
	if len(weekly) != 2 || weekly[0].UUID != c.UUID || weekly[1].UUID != a.UUID {
		t.Errorf("unexpected weekly list: %+v", weekly)
	}

	reqs := srv.Requests()
	if string(reqs[0].Data) != "{}" {
		t.Errorf("expected empty payload without partition, got %s", reqs[0].Data)
	}
}

func TestBattleAndGetBattle(t *testing.T) {
	srv := apitest.NewServer(t)
	ann := srv.AddUser("Ann", "Dragon", 1200)
	srv.AddUser("Bob", "Knight", 1200)
	c := api.NewClient(srv.Endpoint(), nil)

	res, err := c.Battle(context.Background(), ann.UUID)
	if err != nil {
		t.Fatalf("Battle: %v", err)
	}
	if !res.Won() || res.RoundedEloChange() != 25 {
		t.Errorf("expected a 25 point win, got %+v", res)
	}
	if res.UserRecord.Elo != 1225 || res.OtherUserRecord.Elo != 1175 {
		t.Errorf("unexpected elos after battle: %v / %v", res.UserRecord.Elo, res.OtherUserRecord.Elo)
	}

	past, err := c.GetBattle(context.Background(), ann.UUID, res.Timestamp)
	if err != nil {
		t.Fatalf("GetBattle: %v", err)
	}
	if past.Message != res.Message || past.WinnerUserRecord.UUID != ann.UUID {
		t.Errorf("historical battle differs: %+v", past)
	}
}

func TestCall_CanceledContext(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.NewClient(srv.Endpoint(), nil).GetUser(ctx, "u1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if got := api.UserMessage(nil); got != "" {
		t.Errorf("expected empty message for nil, got %q", got)
	}
	if got := api.UserMessage(errors.New("dial tcp: refused")); got != api.UnexpectedErrorMessage {
		t.Errorf("expected generic message, got %q", got)
	}
	wrapped := errors.Join(errors.New("context"), &api.APIError{Message: "Word too long"})
	if got := api.UserMessage(wrapped); got != "Word too long" {
		t.Errorf("expected wrapped API message, got %q", got)
	}
}

func TestRoundedValues(t *testing.T) {
	if got := (api.UserRecord{Elo: 1212.5}).RoundedElo(); got != 1213 {
		t.Errorf("expected 1213, got %d", got)
	}
	res := api.BattleResult{EloChange: -15.4}
	if res.Won() || res.RoundedEloChange() != 15 {
		t.Errorf("expected loss of 15, got won=%v change=%d", res.Won(), res.RoundedEloChange())
	}
}
