package db

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// History records one row per account per run, so repeated failures
// are visible without digging through notification backlogs.
type History struct {
	db *sql.DB
}

func Open(path string) (*History, error) {
	sqlite, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = sqlite.Exec(Schema)
	if err != nil {
		sqlite.Close()
		return nil, err
	}
	return &History{db: sqlite}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

type RunRecord struct {
	StartedAt     time.Time
	AccountIdx    int
	Outcome       string
	ServicesFound int
	Detail        string
}

func (h *History) Record(ctx context.Context, rec RunRecord) error {
	_, err := h.db.ExecContext(
		ctx,
		`INSERT INTO run_history (startedat, accountidx, outcome, servicesfound, detail)
		VALUES (?, ?, ?, ?, ?)`,
		rec.StartedAt.Unix(),
		rec.AccountIdx,
		rec.Outcome,
		rec.ServicesFound,
		rec.Detail,
	)
	return err
}

func (h *History) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := h.db.QueryContext(
		ctx,
		`SELECT startedat, accountidx, outcome, servicesfound, detail
		FROM run_history ORDER BY startedat DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt int64
		err = rows.Scan(
			&startedAt,
			&rec.AccountIdx,
			&rec.Outcome,
			&rec.ServicesFound,
			&rec.Detail,
		)
		if err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(startedAt, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}
