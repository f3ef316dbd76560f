package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotp/internal/audit/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

type ListEventsInput struct {
	UserID int64     `json:"user_id" validate:"gte=0"`
	From   time.Time
	To     time.Time
	Page   int32     `json:"page" validate:"gte=0"`
	Size   int32     `json:"size" validate:"gte=0,lte=100"`
}

type ListEventsOutput struct {
	Events []entity.Event
	Total  int64
	Page   int32
	Size   int32
}

func (s *Usecase) ListEvents(ctx context.Context, in ListEventsInput) (*ListEventsOutput, error) {
	ctx, span := s.startSpan(ctx, "ListEvents")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid list audit events input", "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.From.IsZero() && !in.To.IsZero() && in.To.Before(in.From) {
		return nil, goerror.NewBusiness("Invalid time range", goerror.CodeInvalidInput)
	}

	if in.Page == 0 {
		in.Page = 1
	}
	if in.Size == 0 {
		in.Size = 20
	}

	events, total, err := s.repoDB.ListEvents(ctx, entity.EventFilter{
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
		Limit:  in.Size,
		Offset: (in.Page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit events", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListEventsOutput{Events: events, Total: total, Page: in.Page, Size: in.Size}, nil
}
