package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gotp/internal/audit/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/mail"
	"github.com/shandysiswandi/gotp/internal/pkg/storage"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	permObject = "audit"
	permAction = "read"
)

type repoDB interface {
	CreateEvent(ctx context.Context, ev entity.Event) error
	ListEvents(ctx context.Context, f entity.EventFilter) ([]entity.Event, int64, error)
	GetRecipient(ctx context.Context, userID int64) (*entity.Recipient, error)
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

type Usecase struct {
	repoDB    repoDB
	repoMail  repoMail
	storage   storage.Storage
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
	enforcer  enforcer
}

type Dependency struct {
	RepoDB     repoDB
	RepoMail   repoMail
	Storage    storage.Storage
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Enforcer   enforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMail:  dep.RepoMail,
		storage:   dep.Storage,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		enforcer:  dep.Enforcer,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.usecase").Start(ctx, name)
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if !clm.IsService() {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	ok, err := s.enforcer.Enforce(clm.Subject, permObject, permAction)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "subject", clm.Subject, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "audit access denied", "subject", clm.Subject)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}

func (s *Usecase) getString(key, def string) string {
	if s.cfg == nil {
		return def
	}
	if v := s.cfg.GetString(key); v != "" {
		return v
	}
	return def
}

func (s *Usecase) getInt(key string, def int) int {
	if s.cfg == nil {
		return def
	}
	if v := s.cfg.GetInt(key); v > 0 {
		return v
	}
	return def
}
