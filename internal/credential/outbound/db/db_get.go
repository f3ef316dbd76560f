package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gotp/internal/credential/entity"
)

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.conn.QueryRow(ctx, queryGetUserByID, id).Scan(&u.ID, &u.Username, &u.Email, &u.IsServiceAccount)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

func (s *DB) GetCredential(ctx context.Context, userID int64, typ, deviceName string) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredential")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryGetCredential, userID, typ, deviceName)
	if err != nil {
		return nil, s.mapError(err)
	}

	cred, err := pgx.CollectExactlyOneRow(rows, scanCredential)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &cred, nil
}

func (s *DB) ListCredentials(ctx context.Context, userID int64, typ string) (_ []entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "ListCredentials")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListCredentials, userID, typ)
	if err != nil {
		return nil, s.mapError(err)
	}

	creds, err := pgx.CollectRows(rows, scanCredential)
	if err != nil {
		return nil, s.mapError(err)
	}

	return creds, nil
}

func scanCredential(row pgx.CollectableRow) (entity.Credential, error) {
	var c entity.Credential
	err := row.Scan(&c.ID, &c.UserID, &c.Type, &c.DeviceName, &c.Secret, &c.CreatedAt)
	return c, err
}
