package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"flip/internal/app"
	"flip/internal/config"
	"flip/internal/domain"
	"flip/internal/domain/shedding"
	"flip/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

type mockMatches struct {
	created []map[string]interface{}
	err     error
}

func (m *mockMatches) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.created = append(m.created, params)
	return "match-" + params["session_id"].(string), nil
}

type mockStorage struct {
	writes []*runtime.StorageWrite
}

func (m *mockStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	m.writes = append(m.writes, writes...)
	return []*api.StorageObjectAck{{Collection: writes[0].Collection, Key: writes[0].Key}}, nil
}

func newTestModule(t *testing.T) *Module {
	t.Helper()
	cfg := config.Default()
	cfg.Bots.MinDelayMs, cfg.Bots.MaxDelayMs = 0, 0
	reg := app.NewRegistry(cfg, noopLogger{})
	t.Cleanup(reg.Close)
	return &Module{Registry: reg, logger: noopLogger{}}
}

func asUser(id string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, id)
}

func runtimeCode(t *testing.T, err error) int {
	t.Helper()
	var rerr *runtime.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *runtime.Error, got %v", err)
	}
	return rerr.Code
}

func TestCreateGame(t *testing.T) {
	m := newTestModule(t)
	matches := &mockMatches{}

	out, err := m.createGame(asUser("alice"), noopLogger{}, matches, `{"variant":"shedding","players":["bob","alice"]}`)
	if err != nil {
		t.Fatalf("createGame: %v", err)
	}
	var resp CreateGameResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.MatchID != "match-"+resp.SessionID || len(matches.created) != 1 {
		t.Fatalf("Unexpected match %q for %q", resp.MatchID, resp.SessionID)
	}
	if len(resp.Players) != 2 || resp.Players[0].ID != "alice" || resp.Players[1].ID != "bob" {
		t.Fatalf("Caller should sit first without duplicates: %+v", resp.Players)
	}
}

func TestCreateGameErrors(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		payload string
		matches *mockMatches
		code    int
	}{
		{name: "Anonymous", ctx: context.Background(), payload: `{"variant":"shedding"}`, code: codeUnauthenticated},
		{name: "Malformed", ctx: asUser("alice"), payload: `{`, code: codeInvalidArgument},
		{name: "UnknownVariant", ctx: asUser("alice"), payload: `{"variant":"poker","players":["bob"]}`, code: codeInvalidArgument},
		{name: "TooFewPlayers", ctx: asUser("alice"), payload: `{"variant":"deduction"}`, code: codeInvalidArgument},
		{name: "MatchFails", ctx: asUser("alice"), payload: `{"variant":"shedding","players":["bob"]}`, matches: &mockMatches{err: errors.New("down")}, code: codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModule(t)
			matches := tt.matches
			if matches == nil {
				matches = &mockMatches{}
			}
			_, err := m.createGame(tt.ctx, noopLogger{}, matches, tt.payload)
			if got := runtimeCode(t, err); got != tt.code {
				t.Fatalf("code = %d, want %d (%v)", got, tt.code, err)
			}
			if len(m.Registry.List()) != 0 {
				t.Fatal("failed create left a session behind")
			}
		})
	}
}

func TestSubmitAndView(t *testing.T) {
	m := newTestModule(t)
	out, err := m.createGame(asUser("alice"), noopLogger{}, nil, `{"variant":"shedding","players":["bob"],"seed":3}`)
	if err != nil {
		t.Fatal(err)
	}
	var created CreateGameResponse
	_ = json.Unmarshal([]byte(out), &created)

	req := func(cmd domain.Envelope) string {
		b, _ := json.Marshal(SessionRequest{SessionID: created.SessionID, Command: cmd})
		return string(b)
	}

	// bob is not the active player.
	out, err = m.RpcSubmitCommand(asUser("bob"), noopLogger{}, nil, nil, req(domain.Envelope{Type: shedding.CmdDrawCard}))
	if err != nil {
		t.Fatal(err)
	}
	var res app.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Applied || len(res.Errors) != 1 || res.Errors[0].Kind != domain.KindNotYourTurn {
		t.Fatalf("Expected NOT_YOUR_TURN, got %+v", res)
	}

	out, err = m.RpcSubmitCommand(asUser("alice"), noopLogger{}, nil, nil, req(domain.Envelope{Type: shedding.CmdDrawCard}))
	if err != nil {
		t.Fatal(err)
	}
	_ = json.Unmarshal([]byte(out), &res)
	if !res.Applied || res.View.ActivePlayer != "bob" {
		t.Fatalf("Expected an applied draw passing the turn, got %+v", res)
	}

	out, err = m.RpcGetView(asUser("bob"), noopLogger{}, nil, nil, req(domain.Envelope{}))
	if err != nil {
		t.Fatal(err)
	}
	var view domain.View
	_ = json.Unmarshal([]byte(out), &view)
	if view.Viewer != "bob" || view.Seq != res.Seq {
		t.Fatalf("Unexpected view %+v", view)
	}

	if _, err := m.RpcGetView(asUser("mallory"), noopLogger{}, nil, nil, req(domain.Envelope{})); runtimeCode(t, err) != codePermissionDenied {
		t.Fatalf("Expected permission denied, got %v", err)
	}
	missing, _ := json.Marshal(SessionRequest{SessionID: "nope"})
	if _, err := m.RpcGetView(asUser("bob"), noopLogger{}, nil, nil, string(missing)); runtimeCode(t, err) != codeNotFound {
		t.Fatalf("Expected not found, got %v", err)
	}

	list, err := m.RpcListGames(asUser("bob"), noopLogger{}, nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	var infos []app.SessionInfo
	if err := json.Unmarshal([]byte(list), &infos); err != nil || len(infos) != 1 || infos[0].ID != created.SessionID {
		t.Fatalf("Unexpected listing %s (%v)", list, err)
	}
}

func TestStorageResultSink(t *testing.T) {
	storage := &mockStorage{}
	sink := NewStorageResultSink(storage)
	result := ports.GameResult{ID: "r-1", SessionID: "s-1", Variant: "shedding", Outcome: "WINNER", Winner: "alice"}

	if err := sink.RecordResult(context.Background(), result); err != nil {
		t.Fatal(err)
	}
	if len(storage.writes) != 1 {
		t.Fatalf("Expected 1 write, got %d", len(storage.writes))
	}
	w := storage.writes[0]
	if w.Collection != StorageCollectionResults || w.Key != "r-1" || w.UserID != "" || w.PermissionRead != 2 {
		t.Fatalf("Unexpected write %+v", w)
	}
	var stored ports.GameResult
	if err := json.Unmarshal([]byte(w.Value), &stored); err != nil || stored.Winner != "alice" {
		t.Fatalf("Unexpected stored value %s (%v)", w.Value, err)
	}
}

func TestToRuntimeErrorHidesInternalFaults(t *testing.T) {
	err := toRuntimeError(errors.Join(app.ErrInternalFault, errors.New("slot index 9 out of range")))
	var rerr *runtime.Error
	if !errors.As(err, &rerr) || rerr.Code != codeInternal || rerr.Message != "internal error" {
		t.Fatalf("Unexpected %v", err)
	}
}
