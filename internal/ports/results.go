package ports

import (
	"context"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// GameResult is the record handed to the persistence collaborator when a
// session reaches a terminal state.
type GameResult struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Variant    string    `json:"variant"`
	Players    []string  `json:"players"`
	Bots       []string  `json:"bots,omitempty"`
	Outcome    string    `json:"outcome"`
	Winner     string    `json:"winner,omitempty"`
	Turns      int       `json:"turns"`
	LastSeq    uint64    `json:"last_seq"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ResultSink receives finished games. The engine never reads results back.
type ResultSink interface {
	// RecordResult stores or forwards one result. Implementations must be
	// safe for concurrent use; sessions finish independently.
	RecordResult(ctx context.Context, result GameResult) error
}

// LoggingResultSink writes results to a logger. It is the default sink when
// no persistence collaborator is configured.
type LoggingResultSink struct {
	Logger runtime.Logger
}

func (s LoggingResultSink) RecordResult(_ context.Context, result GameResult) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.WithFields(map[string]interface{}{
		"session": result.SessionID,
		"variant": result.Variant,
	}).Info("game %s finished: %s winner=%q after %d turns", result.ID, result.Outcome, result.Winner, result.Turns)
	return nil
}

// MultiResultSink fans a result out to several sinks and returns the first error.
type MultiResultSink []ResultSink

func (m MultiResultSink) RecordResult(ctx context.Context, result GameResult) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.RecordResult(ctx, result); err != nil && first == nil {
			first = err
		}
	}
	return first
}
