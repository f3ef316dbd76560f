package inbound

import (
	"time"

	"github.com/shandysiswandi/gotp/internal/audit/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// List pages through audit events, newest first.
// @Summary List audit events
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param user_id query int false "Only events of this user"
// @Param from query string false "RFC3339 lower bound (inclusive)"
// @Param to query string false "RFC3339 upper bound (exclusive)"
// @Param page query int false "Page number, starts at 1"
// @Param size query int false "Page size, at most 100"
// @Success 200 {object} router.successResponse{data=ListEventsResponse} "Audit events"
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/events [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	userID, err := r.GetQueryInt64("user_id")
	if err != nil {
		return nil, err
	}
	page, err := r.GetQueryInt64("page")
	if err != nil {
		return nil, err
	}
	size, err := r.GetQueryInt64("size")
	if err != nil {
		return nil, err
	}
	from, err := queryTime(r, "from")
	if err != nil {
		return nil, err
	}
	to, err := queryTime(r, "to")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListEvents(r.Context(), usecase.ListEventsInput{
		UserID: userID,
		From:   from,
		To:     to,
		Page:   int32(page),
		Size:   int32(size),
	})
	if err != nil {
		return nil, err
	}

	events := make([]EventResponse, 0, len(resp.Events))
	for _, ev := range resp.Events {
		events = append(events, EventResponse{
			ID:         ev.ID,
			UserID:     ev.UserID,
			DeviceName: ev.DeviceName,
			Action:     string(ev.Action),
			Actor:      ev.Actor,
			Reason:     ev.Reason,
			Metadata:   ev.Metadata,
			OccurredAt: ev.OccurredAt,
		})
	}

	return ListEventsResponse{Events: events, total: resp.Total, page: resp.Page, size: resp.Size}, nil
}

// Export writes matching audit events to a CSV object and returns a download link.
// @Summary Export audit events
// @Tags Audit
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ExportRequest true "Export filter"
// @Success 200 {object} router.successResponse{data=ExportResponse} "Export created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/events/export [post]
func (h *HTTPEndpoint) Export(r *router.Request) (any, error) {
	var req ExportRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ExportEvents(r.Context(), usecase.ExportEventsInput{
		UserID: req.UserID,
		From:   req.From,
		To:     req.To,
	})
	if err != nil {
		return nil, err
	}

	return ExportResponse{
		URL:       resp.URL,
		Key:       resp.Key,
		Rows:      resp.Rows,
		Truncated: resp.Truncated,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

func queryTime(r *router.Request, key string) (time.Time, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return t, nil
}
