package serviceauth

import (
	"context"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"github.com/shandysiswandi/gotp/internal/serviceauth/inbound"
	"github.com/shandysiswandi/gotp/internal/serviceauth/outbound/db"
	"github.com/shandysiswandi/gotp/internal/serviceauth/usecase"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Hash       hash.Hash                  `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Validator:  dep.Validator,
		Hash:       dep.Hash,
		JWT:        dep.JWT,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Roles:      dep.Enforcer,
	})

	// Optional first client, so a fresh deployment can issue its first token.
	if clientID := strings.TrimSpace(dep.Config.GetString("modules.serviceauth.bootstrap.client_id")); clientID != "" {
		if err := uc.EnsureClient(dep.Ctx, usecase.EnsureClientInput{
			ClientID: clientID,
			Name:     dep.Config.GetString("modules.serviceauth.bootstrap.name"),
			Secret:   dep.Config.GetString("modules.serviceauth.bootstrap.client_secret"),
			Role:     dep.Config.GetString("modules.serviceauth.bootstrap.role"),
		}); err != nil {
			return err
		}
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
