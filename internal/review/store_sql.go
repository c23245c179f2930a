package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const reviewerNameSetting = "reviewerName"

// SQLStore persists review state in the review_states and settings tables.
// Works against both sqlite and postgres (see internal/db).
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) SaveState(ctx context.Context, st State) error {
	buf, err := json.Marshal(st.Reviews)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	key := StorageKey(st.FolderName, st.FileName)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_states (key, folder_name, file_name, reviewer_name, reviews_json, last_modified)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (key) DO UPDATE SET
		   folder_name=EXCLUDED.folder_name,
		   file_name=EXCLUDED.file_name,
		   reviewer_name=EXCLUDED.reviewer_name,
		   reviews_json=EXCLUDED.reviews_json,
		   last_modified=EXCLUDED.last_modified`,
		key, st.FolderName, st.FileName, st.ReviewerName, string(buf), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

func (s *SQLStore) LoadState(ctx context.Context, folder, file string) (State, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT folder_name, file_name, reviewer_name, reviews_json, last_modified
		 FROM review_states WHERE key=$1`, StorageKey(folder, file))
	var st State
	var rjson string
	var modified int64
	if err := row.Scan(&st.FolderName, &st.FileName, &st.ReviewerName, &rjson, &modified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, false, nil
		}
		return State{}, false, err
	}
	st.LastModified = time.Unix(modified, 0)
	if err := json.Unmarshal([]byte(rjson), &st.Reviews); err != nil {
		// Corrupt state reads as absent; Cleanup reaps the row.
		return State{}, false, nil
	}
	return st, true, nil
}

func (s *SQLStore) SaveReviewerName(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (k, v) VALUES ($1,$2)
		 ON CONFLICT (k) DO UPDATE SET v=EXCLUDED.v`,
		reviewerNameSetting, name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

func (s *SQLStore) ReviewerName(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT v FROM settings WHERE k=$1`, reviewerNameSetting).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// Cleanup deletes review states whose last_modified is older than maxAge,
// and any whose stored reviews no longer decode. The settings table is
// never touched.
func (s *SQLStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT key, reviews_json, last_modified FROM review_states`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var key, rjson string
		var modified int64
		if err := rows.Scan(&key, &rjson, &modified); err != nil {
			return 0, err
		}
		var reviews ReviewMap
		if modified < cutoff || json.Unmarshal([]byte(rjson), &reviews) != nil {
			stale = append(stale, key)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM review_states WHERE key=$1`, key); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *SQLStore) SizeInfo(ctx context.Context) (SizeInfo, error) {
	var info SizeInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(key) + LENGTH(reviews_json)), 0), COUNT(*) FROM review_states`).
		Scan(&info.Bytes, &info.Items)
	return info, err
}
