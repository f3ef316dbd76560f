package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/otp"
	"github.com/shandysiswandi/gotp/internal/pkg/saltedsecret"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Verifier validates codes against stored credentials of either secret format.
type Verifier struct {
	engine otp.OTP
	legacy metric.Int64Counter
}

func NewVerifier(engine otp.OTP, ins instrument.Instrumentation) *Verifier {
	v := &Verifier{engine: engine}

	counter, err := ins.Meter("credential.usecase").Int64Counter("credential.verify.legacy",
		metric.WithDescription("Verifications served from an unsalted legacy secret"))
	if err != nil {
		slog.Warn("failed to create legacy verify counter", "error", err)
	} else {
		v.legacy = counter
	}

	return v
}

// Verify reports whether code is valid for stored at the given time. stored is
// only read; a nil credential or empty code is never valid.
func (v *Verifier) Verify(ctx context.Context, stored *entity.Credential, code string, at time.Time) bool {
	if stored == nil || code == "" {
		return false
	}

	// the engine only ever sees the decoded raw secret; stored is left untouched
	decoded := saltedsecret.Decode(stored.Secret)
	if _, ok := decoded.(saltedsecret.Legacy); ok {
		slog.WarnContext(ctx, "verifying credential with legacy unsalted secret",
			"credential_id", stored.ID, "user_id", stored.UserID, "device_name", stored.DeviceName)
		if v.legacy != nil {
			v.legacy.Add(ctx, 1, metric.WithAttributes(attribute.String("type", stored.Type)))
		}
	}

	return v.engine.Validate(code, decoded.Secret(), at)
}

func secretFormat(persisted string) entity.SecretFormat {
	if _, ok := saltedsecret.Decode(persisted).(saltedsecret.Salted); ok {
		return entity.SecretFormatSalted
	}
	return entity.SecretFormatLegacy
}
