package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"flip/internal/app"
	"flip/internal/bot"
	"flip/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Module holds what the RPCs and match handlers share. It is built once in
// InitModule and owns the registry.
type Module struct {
	Registry *app.Registry
	Bots     bot.Options
	logger   runtime.Logger
}

// MatchCreator is the part of runtime.NakamaModule used to open push matches.
type MatchCreator interface {
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

// CreateGameRequest is the payload of flip_create_game. The caller is always
// seated; Players lists the other human seats.
type CreateGameRequest struct {
	Variant domain.Variant `json:"variant"`
	Players []string       `json:"players"`
	Bots    int            `json:"bots"`
	Seed    int64          `json:"seed"`
}

// CreateGameResponse is returned to clients after a session was created.
type CreateGameResponse struct {
	SessionID string              `json:"session_id"`
	MatchID   string              `json:"match_id,omitempty"`
	Players   []domain.PlayerSpec `json:"players"`
}

// SessionRequest addresses one session.
type SessionRequest struct {
	SessionID string          `json:"session_id"`
	Command   domain.Envelope `json:"command"`
}

func (m *Module) RpcCreateGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var matches MatchCreator
	if nk != nil {
		matches = nk
	}
	return m.createGame(ctx, logger, matches, payload)
}

func (m *Module) createGame(ctx context.Context, logger runtime.Logger, matches MatchCreator, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}
	var req CreateGameRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}

	spec := app.GameSpec{Variant: req.Variant, Seed: req.Seed, Bots: req.Bots}
	spec.Players = append(spec.Players, domain.PlayerSpec{ID: userID})
	for _, id := range req.Players {
		if id != userID {
			spec.Players = append(spec.Players, domain.PlayerSpec{ID: id})
		}
	}
	if spec.Bots > 0 && !m.Registry.Config().Bots.Enabled {
		return "", runtime.NewError("bots are disabled", codeInvalidArgument)
	}

	sess, err := m.Registry.CreateGame(ctx, spec)
	if err != nil {
		logger.Warn("RpcCreateGame [User:%s]: %v", userID, err)
		return "", toRuntimeError(err)
	}
	if _, err := bot.Attach(context.Background(), sess, m.Bots, logger); err != nil {
		logger.Error("RpcCreateGame [User:%s]: failed to start bots: %v", userID, err)
		_ = m.Registry.Remove(sess.ID())
		return "", runtime.NewError("failed to start bots", codeInternal)
	}

	resp := CreateGameResponse{SessionID: sess.ID(), Players: sess.Players()}
	if matches != nil {
		matchID, err := matches.MatchCreate(ctx, MatchNameSession, map[string]interface{}{"session_id": sess.ID()})
		if err != nil {
			logger.Error("RpcCreateGame [User:%s]: failed to create match: %v", userID, err)
			_ = m.Registry.Remove(sess.ID())
			return "", runtime.NewError("failed to create match", codeInternal)
		}
		resp.MatchID = matchID
	}
	logger.Info("RpcCreateGame [User:%s]: created %s session %s", userID, req.Variant, sess.ID())
	return marshal(resp)
}

func (m *Module) RpcSubmitCommand(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, sess, req, err := m.resolve(ctx, payload)
	if err != nil {
		return "", err
	}
	res, err := sess.SubmitEnvelope(ctx, userID, req.Command)
	if err != nil {
		logger.Warn("RpcSubmitCommand [User:%s]: %s on %s failed: %v", userID, req.Command.Type, sess.ID(), err)
		return "", toRuntimeError(err)
	}
	return marshal(res)
}

func (m *Module) RpcGetView(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, sess, _, err := m.resolve(ctx, payload)
	if err != nil {
		return "", err
	}
	view, err := sess.View(userID)
	if err != nil {
		return "", toRuntimeError(err)
	}
	return marshal(view)
}

func (m *Module) RpcListGames(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return marshal(m.Registry.List())
}

func (m *Module) resolve(ctx context.Context, payload string) (string, *app.Session, SessionRequest, error) {
	var req SessionRequest
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", nil, req, runtime.NewError("authentication required", codeUnauthenticated)
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.SessionID == "" {
		return "", nil, req, runtime.NewError("invalid payload", codeInvalidArgument)
	}
	sess, err := m.Registry.Get(req.SessionID)
	if err != nil {
		return "", nil, req, toRuntimeError(err)
	}
	return userID, sess, req, nil
}

// toRuntimeError maps engine errors to Nakama status codes. Internal faults
// never leak their message.
func toRuntimeError(err error) error {
	switch {
	case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSessionClosed):
		return runtime.NewError(err.Error(), codeNotFound)
	case errors.Is(err, app.ErrUnknownPlayer):
		return runtime.NewError(err.Error(), codePermissionDenied)
	case errors.Is(err, app.ErrInternalFault):
		return runtime.NewError("internal error", codeInternal)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return runtime.NewError(err.Error(), codeInternal)
	}
	return runtime.NewError(err.Error(), codeInvalidArgument)
}

func marshal(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("failed to encode response", codeInternal)
	}
	return string(b), nil
}
