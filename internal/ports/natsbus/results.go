package natsbus

import (
	"context"
	"encoding/json"
	"fmt"

	"flip/internal/ports"
)

// ResultPublisher implements ports.ResultSink by publishing each finished
// game on the results subject.
type ResultPublisher struct {
	conn    Conn
	subject string
}

func NewResultPublisher(conn Conn, subjects Subjects) *ResultPublisher {
	return &ResultPublisher{conn: conn, subject: subjects.Results()}
}

func (p *ResultPublisher) RecordResult(_ context.Context, result ports.GameResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish result %s: %w", result.ID, err)
	}
	return nil
}

var _ ports.ResultSink = (*ResultPublisher)(nil)
