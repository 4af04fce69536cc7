package persist

import (
	"context"
	"fmt"
)

// StatsRow is one effect system's counters at a given runner tick.
type StatsRow struct {
	RunID      string
	Tick       uint64
	System     string
	Kind       string
	Capacity   int
	IndexCount int
	SyncCount  int
	Spawned    uint64
	Dropped    uint64
	Expired    uint64
	Cancelled  uint64
	Clears     uint64
}

type StatsRepo struct {
	db *DB
}

func NewStatsRepo(db *DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// WriteSnapshots writes a batch of rows in a single transaction.
func (r *StatsRepo) WriteSnapshots(ctx context.Context, rows []StatsRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("stats begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO effect_stats (run_id, tick, system, kind, capacity, index_count, sync_count,
			                           spawned, dropped, expired, cancelled, clears)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			s.RunID, int64(s.Tick), s.System, s.Kind, s.Capacity, s.IndexCount, s.SyncCount,
			int64(s.Spawned), int64(s.Dropped), int64(s.Expired), int64(s.Cancelled), int64(s.Clears),
		); err != nil {
			return fmt.Errorf("stats insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Recent returns the latest rows of one system in a run, newest first.
func (r *StatsRepo) Recent(ctx context.Context, runID, system string, limit int) ([]StatsRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT run_id, tick, system, kind, capacity, index_count, sync_count,
		        spawned, dropped, expired, cancelled, clears
		 FROM effect_stats WHERE run_id = $1 AND system = $2
		 ORDER BY tick DESC LIMIT $3`,
		runID, system, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var s StatsRow
		var tick, spawned, dropped, expired, cancelled, clears int64
		if err := rows.Scan(
			&s.RunID, &tick, &s.System, &s.Kind, &s.Capacity, &s.IndexCount, &s.SyncCount,
			&spawned, &dropped, &expired, &cancelled, &clears,
		); err != nil {
			return nil, err
		}
		s.Tick = uint64(tick)
		s.Spawned, s.Dropped, s.Expired = uint64(spawned), uint64(dropped), uint64(expired)
		s.Cancelled, s.Clears = uint64(cancelled), uint64(clears)
		out = append(out, s)
	}
	return out, rows.Err()
}
