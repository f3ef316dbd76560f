package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/serviceauth/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("serviceauth.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) GetClientByClientID(ctx context.Context, clientID string) (_ *entity.Client, err error) {
	ctx, span := s.startSpan(ctx, "GetClientByClientID")
	defer func() { s.endSpan(span, err) }()

	var c entity.Client
	err = s.conn.QueryRow(ctx,
		`SELECT id, client_id, name, secret_hash, is_active, created_at FROM service_clients WHERE client_id = $1`,
		clientID,
	).Scan(&c.ID, &c.ClientID, &c.Name, &c.SecretHash, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &c, nil
}

func (s *DB) CreateClient(ctx context.Context, c entity.Client) (err error) {
	ctx, span := s.startSpan(ctx, "CreateClient")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO service_clients (id, client_id, name, secret_hash, is_active, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ClientID, c.Name, c.SecretHash, c.IsActive, c.CreatedAt,
	)
	return s.mapError(err)
}
