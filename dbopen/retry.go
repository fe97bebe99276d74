package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Retry policy for writes that race a concurrent WAL writer: three
// attempts with 100/200/300 ms backoff.
const (
	retryAttempts = 3
	retryStep     = 100 * time.Millisecond
)

// IsBusy reports whether err is an SQLite BUSY condition (a lock held by
// another connection), as surfaced by the modernc driver.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// RunTx runs fn inside a transaction, retrying the whole transaction when
// it fails with BUSY. Any other error from fn rolls back and returns as-is.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = execTx(ctx, db, fn); err == nil {
			return nil
		}
		if !IsBusy(err) || attempt == retryAttempts {
			return err
		}
		if werr := waitRetry(ctx, attempt); werr != nil {
			return fmt.Errorf("dbopen: context cancelled during retry: %w", werr)
		}
	}
}

// Exec runs a single statement with the same BUSY retry policy as RunTx.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	var err error
	for attempt := 1; ; attempt++ {
		if result, err = db.ExecContext(ctx, query, args...); err == nil {
			return result, nil
		}
		if !IsBusy(err) || attempt == retryAttempts {
			return nil, err
		}
		if werr := waitRetry(ctx, attempt); werr != nil {
			return nil, fmt.Errorf("dbopen: context cancelled during retry: %w", werr)
		}
	}
}

func execTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbopen: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbopen: commit: %w", err)
	}
	return nil
}

func waitRetry(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt) * retryStep)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
