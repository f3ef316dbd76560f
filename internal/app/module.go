package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gotp/internal/audit"
	"github.com/shandysiswandi/gotp/internal/credential"
	"github.com/shandysiswandi/gotp/internal/serviceauth"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.serviceauth.enabled") {
		if err := serviceauth.New(serviceauth.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Enforcer:   a.casbin,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Clock:      a.clock,
			Hash:       a.hash,
			JWT:        a.jwt,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module serviceauth", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.credential.enabled") {
		if err := credential.New(credential.Dependency{
			DBConn:      a.dbConn,
			Goroutine:   a.goroutine,
			Enforcer:    a.casbin,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			Clock:       a.clock,
			Totp:        a.totp,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module credential", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.audit.enabled") {
		if err := audit.New(audit.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Storage:    a.storage,
			Enforcer:   a.casbin,
			Router:     a.router,
			Goroutine:  a.goroutine,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module audit", "error", err)
			os.Exit(1)
		}
	}
}
