package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/credit-explainer/internal/core"
)

// timeLayout sorts lexically in chronological order for UTC values
const timeLayout = "2006-01-02 15:04:05.000000"

const selectColumns = `id, started_at, finished_at, model_path, data_path, report_path,
	classes, instances, features, baseline, status, error`

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

// recordArgs returns the insert arguments in selectColumns order
func recordArgs(r *core.RunRecord) ([]interface{}, error) {
	baseline, err := json.Marshal(r.Baseline)
	if err != nil {
		return nil, fmt.Errorf("failed to encode baseline: %w", err)
	}
	return []interface{}{
		r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.ModelPath, r.DataPath, r.ReportPath,
		r.Shape.Classes, r.Shape.Instances, r.Shape.Features, string(baseline), r.Status, r.Error,
	}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*core.RunRecord, error) {
	var r core.RunRecord
	var startedAt, finishedAt, baseline string
	err := row.Scan(&r.ID, &startedAt, &finishedAt, &r.ModelPath, &r.DataPath, &r.ReportPath,
		&r.Shape.Classes, &r.Shape.Instances, &r.Shape.Features, &baseline, &r.Status, &r.Error)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan run record: %w", err)
	}
	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at timestamp: %w", err)
	}
	if r.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
	}
	if err := json.Unmarshal([]byte(baseline), &r.Baseline); err != nil {
		return nil, fmt.Errorf("failed to decode baseline: %w", err)
	}
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]*core.RunRecord, error) {
	defer rows.Close()
	var out []*core.RunRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run records: %w", err)
	}
	return out, nil
}
