package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gotp/internal/credential/entity"
)

// CreateCredential writes cred in a single transaction. With replace the old
// row for the same device is removed first, so readers never see a device
// with no credential or with two.
func (s *DB) CreateCredential(ctx context.Context, cred entity.Credential, replace bool) (err error) {
	ctx, span := s.startSpan(ctx, "CreateCredential")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if replace {
		if _, err = tx.Exec(ctx, queryDeleteCredential, cred.UserID, cred.Type, cred.DeviceName); err != nil {
			return s.mapError(err)
		}
	}

	if _, err = tx.Exec(ctx, queryInsertCredential,
		cred.ID, cred.UserID, cred.Type, cred.DeviceName, cred.Secret, cred.CreatedAt); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
