// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/shared"
)

// withConn acquires a dedicated connection for the duration of fn and releases it afterwards.
func withConn(ctx context.Context, db *sql.DB, fn func(*sql.Conn) error) error {
	if db == nil {
		return fmt.Errorf("%w: database not configured", shared.ErrStoreUnavailable)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to acquire connection: %v", shared.ErrStoreUnavailable, err)
	}
	defer conn.Close()

	return fn(conn)
}

// Ping checks that the store can hand out a working connection.
func Ping(ctx context.Context, db *sql.DB) error {
	return withConn(ctx, db, func(conn *sql.Conn) error {
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
		}
		return nil
	})
}
