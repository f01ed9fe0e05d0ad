package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// InsertID runs an INSERT written with ? placeholders and returns the new
// primary key. Postgres gets a RETURNING clause; mysql and sqlite report it
// through LastInsertId.
func InsertID(ctx context.Context, q sqlx.ExtContext, pk, query string, args ...any) (int64, error) {
	if q.DriverName() == DriverPostgres {
		var id int64
		if err := q.QueryRowxContext(ctx, q.Rebind(query+" RETURNING "+pk), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
