package db

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

func (s *DB) DeleteCredential(ctx context.Context, userID int64, typ, deviceName string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteCredential")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryDeleteCredential, userID, typ, deviceName)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
