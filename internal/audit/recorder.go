package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	TenantID string
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Recorder writes records into audit_logs. Every gated mutation in the
// gateway goes through here.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists the log entry.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil {
		return errors.New("audit recorder not initialised")
	}
	if entry.TenantID == "" {
		return errors.New("audit entry requires tenant")
	}
	if entry.Action == "" || entry.Entity == "" {
		return errors.New("audit entry requires action and entity")
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	var meta []byte
	if entry.Meta != nil {
		encoded, err := json.Marshal(entry.Meta)
		if err != nil {
			return err
		}
		meta = encoded
	}
	const query = `INSERT INTO audit_logs (tenant_id, actor, action, entity, entity_id, meta, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, entry.TenantID, entry.Actor, entry.Action, entry.Entity, entry.EntityID, meta, at)
	return err
}

// Cleanup removes entries older than the retention window.
func (r *Recorder) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if r == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-retention)
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
