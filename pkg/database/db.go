package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Config struct {
	URL            string
	MaxConns       int
	Timeout        time.Duration
	TimeZone       string
	ClientEncoding string
}

// Connect opens a *sqlx.DB for the dialect named by the URL scheme and
// verifies connectivity with a ping.
func Connect(cfg Config) (*sqlx.DB, error) {
	d, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if d, err = d.WithSession(cfg.TimeZone, cfg.ClientEncoding); err != nil {
		return nil, err
	}
	db, err := sqlx.Open(d.Driver, d.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	if d.Driver == DriverSQLite {
		// single writer; avoids SQLITE_BUSY between pooled connections
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
