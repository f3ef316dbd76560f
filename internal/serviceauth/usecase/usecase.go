package usecase

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"github.com/shandysiswandi/gotp/internal/serviceauth/entity"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetClientByClientID(ctx context.Context, clientID string) (*entity.Client, error)
	CreateClient(ctx context.Context, c entity.Client) error
}

type roleGranter interface {
	AddRoleForUser(user, role string, domain ...string) (bool, error)
}

type Usecase struct {
	repoDB    repoDB
	validator validator.Validator
	hash      hash.Hash
	jwt       jwt.JWT
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
	roles     roleGranter

	// dummyHash is verified against when the client is unknown so both paths cost the same.
	dummyHash string
}

type Dependency struct {
	RepoDB     repoDB
	Validator  validator.Validator
	Hash       hash.Hash
	JWT        jwt.JWT
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Roles      roleGranter
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoDB:    dep.RepoDB,
		validator: dep.Validator,
		hash:      dep.Hash,
		jwt:       dep.JWT,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		roles:     dep.Roles,
	}

	if h, err := dep.Hash.Hash("gotp-unknown-client"); err == nil {
		uc.dummyHash = string(h)
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("serviceauth.usecase").Start(ctx, name)
}
