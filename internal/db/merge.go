package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Merge describes a keyed bulk merge into Table. Key must be one of Columns
// and carry a unique constraint on the table.
type Merge struct {
	Table   string
	Columns []string
	Key     string
}

// MergeResult counts the rows a merge inserted and updated.
type MergeResult struct {
	Inserted int64
	Updated  int64
}

// Total returns the number of rows written.
func (r MergeResult) Total() int64 { return r.Inserted + r.Updated }

// Collapse drops rows whose value at column key repeats an earlier row. The
// last row for a key wins but keeps the position of the first. Key values
// must be comparable.
func Collapse(rows [][]any, key int) [][]any {
	seen := make(map[any]int, len(rows))
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		if i, ok := seen[row[key]]; ok {
			out[i] = row
			continue
		}
		seen[row[key]] = len(out)
		out = append(out, row)
	}
	return out
}

// Run stages rows with COPY into a temp table and merges them into the
// target in slice order, one transaction for the whole batch.
func (m Merge) Run(ctx context.Context, pool Pool, rows [][]any) (MergeResult, error) {
	var res MergeResult
	key := slices.Index(m.Columns, m.Key)
	if key < 0 {
		return res, eris.Errorf("db: merge %s: key %q is not a column", m.Table, m.Key)
	}
	rows = Collapse(rows, key)
	if len(rows) == 0 {
		return res, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return res, eris.Wrapf(err, "db: merge %s: begin", m.Table)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stage := m.stageName()
	if _, err := tx.Exec(ctx, m.stageSQL(stage)); err != nil {
		return res, eris.Wrapf(err, "db: merge %s: create stage", m.Table)
	}

	// The ordinal column lets the merge replay rows in slice order.
	staged := make([][]any, len(rows))
	for i, row := range rows {
		staged[i] = append([]any{int64(i)}, row...)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, append([]string{"_ord"}, m.Columns...), pgx.CopyFromRows(staged)); err != nil {
		return res, eris.Wrapf(err, "db: merge %s: copy stage", m.Table)
	}

	inserted, err := tx.Query(ctx, m.mergeSQL(stage))
	if err != nil {
		return res, eris.Wrapf(err, "db: merge %s: merge", m.Table)
	}
	for inserted.Next() {
		var isNew bool
		if err := inserted.Scan(&isNew); err != nil {
			inserted.Close()
			return res, eris.Wrapf(err, "db: merge %s: scan", m.Table)
		}
		if isNew {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	inserted.Close()
	if err := inserted.Err(); err != nil {
		return res, eris.Wrapf(err, "db: merge %s: merge", m.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return MergeResult{}, eris.Wrapf(err, "db: merge %s: commit", m.Table)
	}
	return res, nil
}

func (m Merge) stageName() string {
	return strings.ReplaceAll(m.Table, ".", "_") + "_stage"
}

// stageSQL creates an empty temp table with an ordinal plus the merged
// columns, typed like the target.
func (m Merge) stageSQL(stage string) string {
	return fmt.Sprintf("CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT 0::bigint AS _ord, %s FROM %s WITH NO DATA",
		pgx.Identifier{stage}.Sanitize(), columnList(m.Columns), identifier(m.Table).Sanitize())
}

// mergeSQL returns one boolean row per written row: true when inserted.
func (m Merge) mergeSQL(stage string) string {
	cols := columnList(m.Columns)
	action := "DO NOTHING"
	var sets []string
	for _, c := range m.Columns {
		if c == m.Key {
			continue
		}
		q := pgx.Identifier{c}.Sanitize()
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ORDER BY _ord ON CONFLICT (%s) %s RETURNING (xmax = 0)",
		identifier(m.Table).Sanitize(), cols, cols, pgx.Identifier{stage}.Sanitize(),
		pgx.Identifier{m.Key}.Sanitize(), action)
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
