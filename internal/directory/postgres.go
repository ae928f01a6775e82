package directory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mission-control/internal/model"
)

// Querier is the subset of pgxpool.Pool used to read clubs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads clubs from the clubs table in id order. List columns
// are text[].
type PostgresSource struct {
	DSN string

	// Pool, when set, is used instead of dialing DSN.
	Pool Querier
}

const postgresClubsQuery = `SELECT name, category, related, tags, discord, president,
	meeting_schedule, members, next_meetings
FROM clubs ORDER BY id`

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Load(ctx context.Context) ([]model.RawClub, error) {
	q := s.Pool
	if q == nil {
		pool, err := pgxpool.New(ctx, s.DSN)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: connect")
		}
		defer pool.Close()
		q = pool
	}
	return queryClubs(ctx, q)
}

func queryClubs(ctx context.Context, q Querier) ([]model.RawClub, error) {
	rows, err := q.Query(ctx, postgresClubsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query clubs")
	}
	defer rows.Close()

	var out []model.RawClub
	for rows.Next() {
		var (
			raw     model.RawClub
			members *int32
		)
		if err := rows.Scan(&raw.Name, &raw.Category, &raw.Related, &raw.Tags,
			&raw.Discord, &raw.President, &raw.MeetingSchedule, &members, &raw.NextMeetings); err != nil {
			return nil, eris.Wrap(err, "postgres: scan club")
		}
		if members != nil {
			n := int(*members)
			raw.Members = &n
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate clubs")
	}
	return out, nil
}
