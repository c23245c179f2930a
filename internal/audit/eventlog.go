// Package audit appends export events to the export_log table so that
// re-exports and overwrites stay traceable.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeFileExported = "file_exported"
	TypeStatusMerged = "status_merged"
)

type Event struct {
	Seq       int64
	Type      string
	Key       string // natural key: folder/file
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Append records one event. data is marshalled to JSON; a nil data writes
// an empty object.
func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	payload := []byte("{}")
	if data != nil {
		buf, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = buf
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO export_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, string(payload), time.Now().Unix())
	return err
}
