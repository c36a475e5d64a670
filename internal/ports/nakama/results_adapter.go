package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"flip/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// StorageWriter is the part of runtime.NakamaModule used to persist results.
type StorageWriter interface {
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// StorageResultSink implements ports.ResultSink using Nakama storage. Records
// are system owned and publicly readable.
type StorageResultSink struct {
	nk StorageWriter
}

// NewStorageResultSink creates a new result adapter.
func NewStorageResultSink(nk StorageWriter) *StorageResultSink {
	return &StorageResultSink{nk: nk}
}

// RecordResult writes one result keyed by its id.
func (s *StorageResultSink) RecordResult(ctx context.Context, result ports.GameResult) error {
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      StorageCollectionResults,
		Key:             result.ID,
		Value:           string(value),
		PermissionRead:  2,
		PermissionWrite: 0,
	}})
	if err != nil {
		return fmt.Errorf("failed to store result %s: %w", result.ID, err)
	}
	return nil
}

var _ ports.ResultSink = (*StorageResultSink)(nil)
