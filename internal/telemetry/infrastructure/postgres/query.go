package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	telemetry "subsidy-reporter/internal/telemetry/domain"
)

const defaultReadingsTable = "meter_readings"

// ReadingQuery loads meter readings stored one row per (ts, channel).
type ReadingQuery struct {
	db    *sql.DB
	table string
}

// QueryOption configures the reading query.
type QueryOption func(*ReadingQuery)

// WithQueryTable overrides the default table name. A schema may be given as
// "schema.table".
func WithQueryTable(table string) QueryOption {
	return func(query *ReadingQuery) {
		if query != nil && table != "" {
			query.table = table
		}
	}
}

// NewReadingQuery constructs a query with the default table name.
func NewReadingQuery(db *sql.DB, opts ...QueryOption) *ReadingQuery {
	query := &ReadingQuery{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// LoadSeries returns readings with from <= ts <= to. Every channel present in
// the table is declared, even when it has no rows inside the range.
func (q *ReadingQuery) LoadSeries(ctx context.Context, from, to time.Time) (*telemetry.ReadingSeries, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("reading query: nil db")
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, errors.New("reading query: invalid range")
	}
	table := pgx.Identifier(strings.Split(q.table, ".")).Sanitize()

	channels, err := q.channels(ctx, table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT ts, channel_id, watts
FROM %s
WHERE ts >= $1
	AND ts <= $2
ORDER BY ts ASC, channel_id ASC`, table)

	rows, err := q.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []telemetry.MeterReading
	for rows.Next() {
		var ts time.Time
		var channel string
		var watts sql.NullFloat64
		if err := rows.Scan(&ts, &channel, &watts); err != nil {
			return nil, err
		}
		if !watts.Valid {
			continue
		}
		readings = append(readings, telemetry.MeterReading{At: ts.UTC(), ChannelID: channel, Watts: watts.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return telemetry.NewReadingSeries(channels, readings)
}

func (q *ReadingQuery) channels(ctx context.Context, table string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT channel_id FROM %s`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var channel string
		if err := rows.Scan(&channel); err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}
