package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gotp/internal/audit/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	queryInsertEvent = `INSERT INTO audit_events (id, user_id, device_name, action, actor, reason, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// Zero filter values are passed as NULL / 0 and match everything.
	queryListEvents = `SELECT id, user_id, device_name, action, actor, reason, metadata, occurred_at
		FROM audit_events
		WHERE ($1::BIGINT = 0 OR user_id = $1)
			AND ($2::TIMESTAMPTZ IS NULL OR occurred_at >= $2)
			AND ($3::TIMESTAMPTZ IS NULL OR occurred_at < $3)
		ORDER BY occurred_at DESC, id DESC
		LIMIT $4 OFFSET $5`

	queryCountEvents = `SELECT COUNT(*)
		FROM audit_events
		WHERE ($1::BIGINT = 0 OR user_id = $1)
			AND ($2::TIMESTAMPTZ IS NULL OR occurred_at >= $2)
			AND ($3::TIMESTAMPTZ IS NULL OR occurred_at < $3)`

	queryGetRecipient = `SELECT id, username, email FROM users WHERE id = $1`
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) CreateEvent(ctx context.Context, ev entity.Event) (err error) {
	ctx, span := s.startSpan(ctx, "CreateEvent")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryInsertEvent,
		ev.ID, ev.UserID, ev.DeviceName, string(ev.Action), ev.Actor, ev.Reason, ev.Metadata, ev.OccurredAt)

	return err
}

func (s *DB) ListEvents(ctx context.Context, f entity.EventFilter) (_ []entity.Event, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListEvents")
	defer func() { s.endSpan(span, err) }()

	from, to := nullTime(f.From), nullTime(f.To)

	var total int64
	if err = s.conn.QueryRow(ctx, queryCountEvents, f.UserID, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.conn.Query(ctx, queryListEvents, f.UserID, from, to, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Event, error) {
		var ev entity.Event
		err := row.Scan(&ev.ID, &ev.UserID, &ev.DeviceName, &ev.Action, &ev.Actor, &ev.Reason, &ev.Metadata, &ev.OccurredAt)
		return ev, err
	})
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (s *DB) GetRecipient(ctx context.Context, userID int64) (_ *entity.Recipient, err error) {
	ctx, span := s.startSpan(ctx, "GetRecipient")
	defer func() { s.endSpan(span, err) }()

	var r entity.Recipient
	err = s.conn.QueryRow(ctx, queryGetRecipient, userID).Scan(&r.UserID, &r.Username, &r.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
