package directory

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mission-control/internal/db"
	"github.com/sells-group/mission-control/internal/model"
)

// PostgresSchema creates the clubs table read by PostgresSource.
const PostgresSchema = `CREATE TABLE IF NOT EXISTS clubs (
	id               bigserial PRIMARY KEY,
	name             text NOT NULL UNIQUE,
	category         text,
	related          text[],
	tags             text[],
	discord          text,
	president        text,
	meeting_schedule text,
	members          integer,
	next_meetings    text[]
)`

var clubColumns = []string{
	"name", "category", "related", "tags", "discord", "president",
	"meeting_schedule", "members", "next_meetings",
}

var clubMerge = db.Merge{Table: "clubs", Columns: clubColumns, Key: "name"}

// SeedPostgres merges clubs into the clubs table by name, creating the table
// if needed. Existing clubs keep their position; new ones are appended in
// input order.
func SeedPostgres(ctx context.Context, pool db.Pool, clubs []model.Club) (db.MergeResult, error) {
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		return db.MergeResult{}, eris.Wrap(err, "postgres: create clubs table")
	}
	return clubMerge.Run(ctx, pool, clubRows(clubs))
}

// ReplacePostgres empties the clubs table and copies clubs in input order,
// so the directory read back matches the input. Repeated names keep the
// last record. It returns the number of rows written.
func ReplacePostgres(ctx context.Context, pool db.Pool, clubs []model.Club) (int64, error) {
	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		return 0, eris.Wrap(err, "postgres: create clubs table")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "TRUNCATE clubs RESTART IDENTITY"); err != nil {
		return 0, eris.Wrap(err, "postgres: truncate clubs")
	}
	n, err := db.CopyFrom(ctx, tx, "clubs", clubColumns, db.Collapse(clubRows(clubs), 0))
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace")
	}
	return n, nil
}

// clubRows lays clubs out in clubColumns order, name first.
func clubRows(clubs []model.Club) [][]any {
	rows := make([][]any, len(clubs))
	for i, c := range clubs {
		rows[i] = []any{
			c.Name, c.Category, c.Related, c.Tags, c.Discord, c.President,
			c.MeetingSchedule, memberCount(c.Members), c.NextMeetings,
		}
	}
	return rows
}

// memberCount converts to the integer column; counts it cannot hold are
// stored as unknown.
func memberCount(n *int) *int32 {
	if n == nil || *n > math.MaxInt32 || *n < math.MinInt32 {
		return nil
	}
	v := int32(*n)
	return &v
}
