package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/otp"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"github.com/shandysiswandi/gotp/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

const (
	permObject = "totp"
	permAction = "manage"
)

type CredentialEvent struct {
	Action     event.CredentialAction
	UserID     int64
	DeviceName string
	Actor      string
	Reason     string
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishCredentialEvent(ctx context.Context, ev CredentialEvent) error
}

type repoDB interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetCredential(ctx context.Context, userID int64, typ, deviceName string) (*entity.Credential, error)
	ListCredentials(ctx context.Context, userID int64, typ string) ([]entity.Credential, error)

	// CreateCredential inserts cred atomically. With replace, an existing row for
	// the same (user, type, device) is deleted in the same transaction.
	CreateCredential(ctx context.Context, cred entity.Credential, replace bool) error
	DeleteCredential(ctx context.Context, userID int64, typ, deviceName string) error
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	totp          otp.OTP
	verifier      *Verifier
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	enforcer      enforcer
	goroutine     *goroutine.Manager
	rand          io.Reader
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Totp          otp.OTP
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Enforcer      enforcer
	Goroutine     *goroutine.Manager
	// Rand is the salt source; nil means crypto/rand.
	Rand io.Reader
}

func New(dep Dependency) *Usecase {
	rnd := dep.Rand
	if rnd == nil {
		rnd = rand.Reader
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		totp:          dep.Totp,
		verifier:      NewVerifier(dep.Totp, dep.Instrument),
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		goroutine:     dep.Goroutine,
		rand:          rnd,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if !clm.IsService() {
		slog.WarnContext(ctx, "non service principal attempted credential management", "subject", clm.Subject)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	ok, err := s.enforcer.Enforce(clm.Subject, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "subject", clm.Subject, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}

// authorizeTarget checks the caller and loads the user whose credentials are managed.
func (s *Usecase) authorizeTarget(ctx context.Context, userID int64) (*jwt.Claims, *entity.User, error) {
	clm, err := s.authenticatedAndAuthorized(ctx, permObject, permAction)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repoDB.GetUserByID(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "target user not found", "user_id", userID)
		return nil, nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", userID, "error", err)
		return nil, nil, goerror.NewServer(err)
	}

	if user.IsServiceAccount {
		slog.WarnContext(ctx, "service account targeted for totp credential", "user_id", userID, "subject", clm.Subject)
		return nil, nil, goerror.NewBusiness("Service account cannot hold TOTP credentials", goerror.CodeInvalidFormat)
	}

	return clm, user, nil
}

// publish emits a credential event in the background. Delivery is best effort.
func (s *Usecase) publish(ctx context.Context, ev CredentialEvent) {
	ev.OccurredAt = s.clock.Now()

	started := s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishCredentialEvent(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish credential event",
				"action", string(ev.Action), "user_id", ev.UserID, "device_name", ev.DeviceName, "error", err)
		}
		return nil
	})
	if !started {
		slog.WarnContext(ctx, "credential event dropped", "action", string(ev.Action), "user_id", ev.UserID)
	}
}

func (s *Usecase) intConfig(key string, def int) int {
	if s.cfg == nil {
		return def
	}
	if v := s.cfg.GetInt(key); v > 0 {
		return v
	}
	return def
}

func idempotencyKey(userID int64, key string) string {
	return "credential:register:" + strconv.FormatInt(userID, 10) + ":" + key
}
