// Package sqlite provides the durable SQLite-backed event store. Events
// are appended transactionally with contiguous per-aggregate sequence
// numbers; optimistic concurrency is enforced by an expected-version
// check inside the commit transaction, backed by the primary key on
// (aggregate_type, aggregate_id, seq).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/louisbranch/chronicle/internal/domain/aggregate"
	"github.com/louisbranch/chronicle/internal/domain/event"
	apperrors "github.com/louisbranch/chronicle/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    aggregate_type TEXT    NOT NULL,
    aggregate_id   TEXT    NOT NULL,
    seq            INTEGER NOT NULL,
    timestamp      INTEGER NOT NULL,
    event_type     TEXT    NOT NULL,
    event_version  TEXT    NOT NULL,
    payload_json   BLOB    NOT NULL,
    metadata_json  BLOB,
    PRIMARY KEY (aggregate_type, aggregate_id, seq)
);
`

// Store is a SQLite-backed event store for one aggregate type.
type Store[A aggregate.Root] struct {
	sqlDB         *sql.DB
	newRoot       func() A
	events        *event.Registry
	aggregateType string
	now           func() time.Time
}

// Open opens (and migrates) the journal at path. newRoot builds default
// aggregate state; registry decodes stored payloads.
func Open[A aggregate.Root](path string, newRoot func() A, registry *event.Registry) (*Store[A], error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("event registry is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store[A]{
		sqlDB:         sqlDB,
		newRoot:       newRoot,
		events:        registry,
		aggregateType: newRoot().AggregateType(),
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying SQLite database. Nil-safe so callers can
// defer it in all startup paths.
func (s *Store[A]) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Load returns the full ordered event history for an aggregate id.
func (s *Store[A]) Load(ctx context.Context, aggregateID string) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, apperrors.New(apperrors.CodeStorageFailure, "storage is not configured")
	}
	if strings.TrimSpace(aggregateID) == "" {
		return nil, fmt.Errorf("aggregate id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, timestamp, event_type, event_version, payload_json, metadata_json
		 FROM events
		 WHERE aggregate_type = ? AND aggregate_id = ?
		 ORDER BY seq ASC`,
		s.aggregateType, aggregateID,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list events", err)
	}
	defer rows.Close()

	var history []event.Envelope
	for rows.Next() {
		var (
			seq          int64
			timestamp    int64
			eventType    string
			eventVersion string
			payload      []byte
			metadataJSON []byte
		)
		if err := rows.Scan(&seq, &timestamp, &eventType, &eventVersion, &payload, &metadataJSON); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "scan event", err)
		}
		evt, err := s.events.Decode(eventType, eventVersion, payload)
		if err != nil {
			return nil, err
		}
		metadata, err := decodeMetadata(metadataJSON)
		if err != nil {
			return nil, err
		}
		history = append(history, event.Envelope{
			AggregateID: aggregateID,
			Seq:         uint64(seq),
			Timestamp:   fromMillis(timestamp),
			Event:       evt,
			Metadata:    metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "iterate events", err)
	}
	return history, nil
}

// LoadAggregate folds the history into a fresh aggregate.
func (s *Store[A]) LoadAggregate(ctx context.Context, aggregateID string) (aggregate.Context[A], error) {
	history, err := s.Load(ctx, aggregateID)
	if err != nil {
		return aggregate.Context[A]{}, err
	}
	return aggregate.Fold(aggregateID, s.newRoot, history), nil
}

// Commit appends events after actx.Version in one transaction. A stream
// that advanced past the loaded version fails with a concurrency
// conflict and persists nothing.
func (s *Store[A]) Commit(ctx context.Context, events []event.Domain, actx aggregate.Context[A], metadata map[string]string) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, apperrors.New(apperrors.CodeStorageFailure, "storage is not configured")
	}
	if len(events) == 0 {
		return nil, nil
	}

	metadataJSON, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "begin tx", err)
	}
	defer tx.Rollback()

	var current int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE aggregate_type = ? AND aggregate_id = ?`,
		s.aggregateType, actx.AggregateID,
	).Scan(&current); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "read current seq", err)
	}
	if uint64(current) != actx.Version {
		return nil, conflictError(actx.AggregateID, actx.Version, uint64(current))
	}

	timestamp := s.now().Truncate(time.Millisecond)
	committed := make([]event.Envelope, 0, len(events))
	for i, evt := range events {
		payload, err := s.events.Encode(evt)
		if err != nil {
			return nil, err
		}
		seq := actx.Version + uint64(i) + 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (aggregate_type, aggregate_id, seq, timestamp, event_type, event_version, payload_json, metadata_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.aggregateType, actx.AggregateID, int64(seq), toMillis(timestamp),
			evt.EventType(), evt.EventVersion(), payload, metadataJSON,
		); err != nil {
			if isConstraintError(err) {
				// A concurrent commit inserted the same seq first.
				return nil, conflictError(actx.AggregateID, actx.Version, seq-1)
			}
			return nil, apperrors.Wrap(apperrors.CodeStorageFailure, fmt.Sprintf("append event %d", i), err)
		}
		committed = append(committed, event.Envelope{
			AggregateID: actx.AggregateID,
			Seq:         seq,
			Timestamp:   timestamp,
			Event:       evt,
			Metadata:    copyMetadata(metadata),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "commit tx", err)
	}
	return committed, nil
}

// AggregateIDs lists every aggregate id with at least one event of this
// store's aggregate type, ordered for stable output.
func (s *Store[A]) AggregateIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT aggregate_id FROM events WHERE aggregate_type = ? ORDER BY aggregate_id`,
		s.aggregateType,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list aggregate ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "scan aggregate id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "iterate aggregate ids", err)
	}
	return ids, nil
}

// Verify walks every stream and checks that sequence numbers are
// contiguous starting at 1.
func (s *Store[A]) Verify(ctx context.Context) error {
	ids, err := s.AggregateIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		history, err := s.Load(ctx, id)
		if err != nil {
			return err
		}
		for i, env := range history {
			if env.Seq != uint64(i+1) {
				return fmt.Errorf("event sequence gap aggregate_id=%s expected=%d got=%d", id, i+1, env.Seq)
			}
		}
	}
	return nil
}

func conflictError(aggregateID string, loaded, current uint64) error {
	return apperrors.WithMetadata(
		apperrors.CodeConcurrencyConflict,
		fmt.Sprintf("aggregate %s advanced to seq %d past loaded version %d", aggregateID, current, loaded),
		map[string]string{
			"aggregate_id":     aggregateID,
			"loaded_version":   fmt.Sprintf("%d", loaded),
			"current_sequence": fmt.Sprintf("%d", current),
		},
	)
}

func copyMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	copied := make(map[string]string, len(metadata))
	for key, value := range metadata {
		copied[key] = value
	}
	return copied
}

func encodeMetadata(metadata map[string]string) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSerializationFailure, "encode metadata", err)
	}
	return encoded, nil
}

func decodeMetadata(metadataJSON []byte) (map[string]string, error) {
	if len(metadataJSON) == 0 {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSerializationFailure, "decode metadata", err)
	}
	return metadata, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
