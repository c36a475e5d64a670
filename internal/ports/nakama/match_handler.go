package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"flip/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// MatchState holds the runtime state of the match that mirrors one session.
// The session itself stays authoritative; the match only relays commands and
// pushes each player's view.
type MatchState struct {
	SessionID string                       `json:"session_id"`
	Presences map[string]runtime.Presence  `json:"-"` // Map UserId -> Presence for targeted messaging
	Subs      map[string]*app.Subscription `json:"-"`
	Label     string                       `json:"label"`
}

type matchHandler struct {
	registry *app.Registry
}

// errorMessage is sent with OpError.
type errorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	sessionID, _ := params["session_id"].(string)
	sess, err := mh.registry.Get(sessionID)
	if err != nil {
		logger.Error("MatchInit: session %q: %v", sessionID, err)
		return nil, 0, ""
	}
	state := &MatchState{
		SessionID: sessionID,
		Presences: make(map[string]runtime.Presence),
		Subs:      make(map[string]*app.Subscription),
	}
	label, err := matchLabel(sess)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	state.Label = label
	return state, matchTickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	sess, err := mh.registry.Get(matchState.SessionID)
	if err != nil {
		return state, false, "session closed"
	}
	if !sess.HasPlayer(presence.GetUserId()) {
		return state, false, "not seated in this game"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	sess, err := mh.registry.Get(matchState.SessionID)
	if err != nil {
		return matchState
	}
	for _, p := range presences {
		userID := p.GetUserId()
		if old, ok := matchState.Subs[userID]; ok {
			old.Close()
		}
		sub, err := sess.Subscribe(userID)
		if err != nil {
			logger.Warn("MatchJoin: User %s cannot subscribe: %v", userID, err)
			continue
		}
		matchState.Presences[userID] = p
		matchState.Subs[userID] = sub
	}
	mh.flush(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}
	for _, p := range presences {
		mh.drop(matchState, p.GetUserId())
	}
	return matchState
}

// MatchLoop relays submitted commands and pushes pending views. The match
// ends once the session is gone, or is over and nobody is watching.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLoop: state not found")
		return nil
	}
	sess, err := mh.registry.Get(matchState.SessionID)
	if err != nil {
		logger.Info("MatchLoop: session %s is gone, ending match", matchState.SessionID)
		mh.closeAll(matchState)
		return nil
	}

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpSubmitCommand:
			mh.handleSubmit(ctx, sess, dispatcher, logger, msg)
		default:
			mh.sendError(dispatcher, logger, msg, codeInvalidArgument, "unknown op code")
		}
	}

	mh.flush(matchState, dispatcher, logger)
	mh.updateLabel(matchState, sess, dispatcher, logger)

	if sess.Status().Terminal() && len(matchState.Presences) == 0 {
		mh.closeAll(matchState)
		return nil
	}
	return matchState
}

func (mh *matchHandler) handleSubmit(ctx context.Context, sess *app.Session, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	var req SessionRequest
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		mh.sendError(dispatcher, logger, msg, codeInvalidArgument, "invalid command payload")
		return
	}
	res, err := sess.SubmitEnvelope(ctx, msg.GetUserId(), req.Command)
	if err != nil {
		logger.Warn("handleSubmit: User %s: %v", msg.GetUserId(), err)
		rerr := toRuntimeError(err).(*runtime.Error)
		mh.sendError(dispatcher, logger, msg, rerr.Code, rerr.Message)
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		logger.Error("handleSubmit: Failed to marshal result: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpCommandResult, payload, []runtime.Presence{msg}, nil, true); err != nil {
		logger.Warn("handleSubmit: Failed to send result: %v", err)
	}
}

// flush sends every queued update to its subscriber.
func (mh *matchHandler) flush(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID, sub := range state.Subs {
		presence, ok := state.Presences[userID]
		if !ok {
			continue
		}
	drain:
		for {
			select {
			case u, open := <-sub.Updates():
				if !open {
					delete(state.Subs, userID)
					break drain
				}
				payload, err := json.Marshal(u)
				if err != nil {
					logger.Error("flush: Failed to marshal view: %v", err)
					continue
				}
				if err := dispatcher.BroadcastMessage(OpView, payload, []runtime.Presence{presence}, nil, true); err != nil {
					logger.Warn("flush: Failed to push view to %s: %v", userID, err)
				}
			default:
				break drain
			}
		}
	}
}

func (mh *matchHandler) sendError(dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, code int, message string) {
	payload, _ := json.Marshal(errorMessage{Code: code, Message: message})
	if err := dispatcher.BroadcastMessage(OpError, payload, []runtime.Presence{msg}, nil, true); err != nil {
		logger.Warn("sendError: Failed to send error to %s: %v", msg.GetUserId(), err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, sess *app.Session, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(sess)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if label == state.Label {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
		return
	}
	state.Label = label
}

func (mh *matchHandler) drop(state *MatchState, userID string) {
	if sub, ok := state.Subs[userID]; ok {
		sub.Close()
		delete(state.Subs, userID)
	}
	delete(state.Presences, userID)
}

func (mh *matchHandler) closeAll(state *MatchState) {
	for userID := range state.Subs {
		mh.drop(state, userID)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	if matchState, ok := state.(*MatchState); ok {
		mh.closeAll(matchState)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

// matchLabel describes the session for match listings.
func matchLabel(sess *app.Session) (string, error) {
	info := app.Describe(sess)
	label, err := structpb.NewStruct(map[string]interface{}{
		"session_id": info.ID,
		"variant":    string(info.Variant),
		"phase":      string(info.Phase),
		"seats":      len(info.Players),
		"terminal":   info.Terminal,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
