package dbx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// transaction implements the "BEGIN IMMEDIATE-equivalent acquisition":
// imm=true issues BEGIN IMMEDIATE so concurrent writers against the old
// database during migrate/drain block rather than race, as the guarded
// write-interception protocol requires.
func transaction(ctx context.Context, db *sqlx.DB, imm bool, fn func(tx Tx) error) (rErr error) {
	driver := db.DriverName()
	if driver != "libsql" && driver != "sqlite3" {
		return fmt.Errorf("transactions are only supported for libsql and sqlite3 drivers, got %q", driver)
	}
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	beginStmt := "BEGIN"
	if imm {
		beginStmt = "BEGIN IMMEDIATE"
	}
	if _, err := conn.ExecContext(ctx, beginStmt); err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
				rErr = fmt.Errorf("panic recovery rollback also failed: %v (original: %v)", rbErr, r)
				return
			}
			var e Error
			if asErr, ok := r.(error); ok && errors.As(asErr, &e) {
				rErr = e
				return
			}
			panic(r)
		}
	}()

	tx := &sqlxTx{conn: conn, driverName: driver}
	if err := fn(tx); err != nil {
		if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction after %w: %v", err, rbErr)
		}
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
