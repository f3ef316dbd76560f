package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gotp/internal/audit/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/storage"
)

const exportPageSize int32 = 500

var exportHeader = []string{"id", "user_id", "device_name", "action", "actor", "reason", "correlation_id", "occurred_at"}

type ExportEventsInput struct {
	UserID int64 `json:"user_id" validate:"gte=0"`
	From   time.Time
	To     time.Time
}

type ExportEventsOutput struct {
	URL       string
	Key       string
	Rows      int
	Truncated bool
	ExpiresAt time.Time
}

// ExportEvents writes matching events as CSV to object storage and returns a
// presigned download link.
func (s *Usecase) ExportEvents(ctx context.Context, in ExportEventsInput) (*ExportEventsOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportEvents")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid export audit events input", "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.From.IsZero() && !in.To.IsZero() && in.To.Before(in.From) {
		return nil, goerror.NewBusiness("Invalid time range", goerror.CodeInvalidInput)
	}

	bucket := s.getString("modules.audit.export.bucket", "")
	if bucket == "" {
		slog.ErrorContext(ctx, "audit export bucket is not configured")
		return nil, goerror.NewServer(storage.ErrBucketRequired)
	}
	maxRows := s.getInt("modules.audit.export.max_rows", 10000)
	expiry := time.Duration(s.getInt("modules.audit.export.url_ttl_minutes", 15)) * time.Minute

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, goerror.NewServer(err)
	}

	rows, truncated := 0, false
	for offset := int32(0); ; offset += exportPageSize {
		events, total, err := s.repoDB.ListEvents(ctx, entity.EventFilter{
			UserID: in.UserID,
			From:   in.From,
			To:     in.To,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list audit events for export", "offset", offset, "error", err)
			return nil, goerror.NewServer(err)
		}

		for _, ev := range events {
			if rows >= maxRows {
				truncated = true
				break
			}
			if err := w.Write(exportRecord(ev)); err != nil {
				return nil, goerror.NewServer(err)
			}
			rows++
		}

		if truncated || len(events) < int(exportPageSize) || int64(offset)+int64(len(events)) >= total {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	key := fmt.Sprintf("audit/%s/%d.csv", now.UTC().Format("2006/01/02"), s.uid.Generate())

	if _, err := s.storage.Put(ctx, bucket, key, bytes.NewReader(buf.Bytes()), storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
		Metadata:    map[string]string{"requested-by": clm.Subject, "rows": strconv.Itoa(rows)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload audit export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	url, err := s.storage.PresignGet(ctx, bucket, key, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign audit export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "audit events exported", "key", key, "rows", rows, "truncated", truncated, "subject", clm.Subject)

	return &ExportEventsOutput{URL: url, Key: key, Rows: rows, Truncated: truncated, ExpiresAt: now.Add(expiry)}, nil
}

func exportRecord(ev entity.Event) []string {
	return []string{
		strconv.FormatInt(ev.ID, 10),
		strconv.FormatInt(ev.UserID, 10),
		ev.DeviceName,
		string(ev.Action),
		ev.Actor,
		ev.Reason,
		ev.Metadata.String("correlation_id"),
		ev.OccurredAt.UTC().Format(time.RFC3339),
	}
}
