package otp

import (
	"bytes"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	defaultPeriod     = 30
	defaultSkew       = 1
	defaultSecretSize = 20
	defaultQRSize     = 256
)

// Key is a freshly generated TOTP provisioning key.
type Key struct {
	// Secret is the base32 (unpadded) raw secret.
	Secret string
	// URI is the otpauth:// provisioning URI.
	URI string
	// QRCode is a PNG rendering of URI.
	QRCode []byte
}

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a provisioning key for an account name.
	Generate(accountName string) (Key, error)
	// Validate checks whether code matches secret at the given time.
	Validate(code, secret string, at time.Time) bool
	// GenerateCode computes the code for secret at the given time.
	GenerateCode(secret string, at time.Time) (string, error)
}

// Config tunes the TOTP parameters. Zero values fall back to RFC 6238 defaults,
// except Skew: nil means the default, a pointer to 0 means exact-step matching.
type Config struct {
	Issuer     string
	Period     uint
	Skew       *uint
	Digits     otp.Digits
	SecretSize uint
	QRSize     int
}

// TOTP implements OTP with SHA1 time-based codes.
type TOTP struct {
	issuer     string
	period     uint
	skew       uint
	digits     otp.Digits
	secretSize uint
	qrSize     int
}

// NewTOTP constructs a TOTP engine. Digits other than 6 or 8 fall back to 6.
func NewTOTP(cfg Config) *TOTP {
	t := &TOTP{
		issuer:     cfg.Issuer,
		period:     cfg.Period,
		skew:       defaultSkew,
		digits:     cfg.Digits,
		secretSize: cfg.SecretSize,
		qrSize:     cfg.QRSize,
	}

	if t.digits != otp.DigitsSix && t.digits != otp.DigitsEight {
		t.digits = otp.DigitsSix
	}
	if t.period == 0 {
		t.period = defaultPeriod
	}
	if cfg.Skew != nil {
		t.skew = *cfg.Skew
	}
	if t.secretSize == 0 {
		t.secretSize = defaultSecretSize
	}
	if t.qrSize <= 0 {
		t.qrSize = defaultQRSize
	}

	return t
}

// SecretSize is the raw secret length in bytes produced by Generate.
func (o *TOTP) SecretSize() int {
	return int(o.secretSize)
}

func (o *TOTP) Generate(accountName string) (Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  o.secretSize,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Key{}, err
	}

	img, err := key.Image(o.qrSize, o.qrSize)
	if err != nil {
		return Key{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Key{}, err
	}

	return Key{Secret: key.Secret(), URI: key.URL(), QRCode: buf.Bytes()}, nil
}

func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	if code == "" || secret == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, at, o.opts())
	return ok && err == nil
}

func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts())
}

func (o *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
