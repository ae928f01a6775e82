package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/mission-control/internal/model"
)

// SQLiteSource reads clubs from the clubs table of a SQLite database, in
// rowid order. List columns hold JSON arrays of strings.
type SQLiteSource struct {
	Path string
}

const sqliteClubsQuery = `SELECT name, category, related, tags, discord, president,
	meeting_schedule, members, next_meetings
FROM clubs ORDER BY rowid`

func (s *SQLiteSource) Name() string { return "sqlite:" + s.Path }

func (s *SQLiteSource) Load(ctx context.Context) ([]model.RawClub, error) {
	// sql.Open would create an empty database file; treat a missing file as
	// an empty directory instead.
	if _, err := os.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("directory: source file not found, starting empty", zap.String("path", s.Path))
		return nil, nil
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	defer db.Close() //nolint:errcheck

	rows, err := db.QueryContext(ctx, sqliteClubsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query clubs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RawClub
	for rows.Next() {
		var (
			name, category, discord, president, schedule sql.NullString
			related, tags, nextMeetings                  sql.NullString
			members                                      sql.NullInt64
		)
		if err := rows.Scan(&name, &category, &related, &tags, &discord, &president,
			&schedule, &members, &nextMeetings); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan club")
		}

		raw := model.RawClub{
			Name:            nullStr(name),
			Category:        nullStr(category),
			Discord:         nullStr(discord),
			President:       nullStr(president),
			MeetingSchedule: nullStr(schedule),
		}
		if members.Valid && members.Int64 >= math.MinInt32 && members.Int64 <= math.MaxInt32 {
			n := int(members.Int64)
			raw.Members = &n
		}
		if raw.Related, err = jsonList(related); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode related")
		}
		if raw.Tags, err = jsonList(tags); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode tags")
		}
		if raw.NextMeetings, err = jsonList(nextMeetings); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode next_meetings")
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate clubs")
	}
	return out, nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func jsonList(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}
