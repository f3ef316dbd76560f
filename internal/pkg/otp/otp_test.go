package otp

import (
	"bytes"
	"encoding/base32"
	"image/png"
	"strings"
	"testing"
	"time"

	libOTP "github.com/pquerna/otp"
)

func TestTOTP_Generate(t *testing.T) {
	engine := NewTOTP(Config{Issuer: "gotp", Digits: libOTP.DigitsSix})

	key, err := engine.Generate("alice")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(key.Secret)
	if err != nil {
		t.Fatalf("secret is not base32: %v", err)
	}
	if len(raw) != 20 {
		t.Fatalf("raw secret length = %d, want 20", len(raw))
	}
	if !strings.HasPrefix(key.URI, "otpauth://totp/") || !strings.Contains(key.URI, "issuer=gotp") {
		t.Fatalf("uri = %q", key.URI)
	}

	img, err := png.Decode(bytes.NewReader(key.QRCode))
	if err != nil {
		t.Fatalf("qr code is not a png: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Fatalf("qr width = %d", img.Bounds().Dx())
	}
}

func TestTOTP_ValidateRoundTrip(t *testing.T) {
	engine := NewTOTP(Config{Issuer: "gotp"})
	key, err := engine.Generate("bob")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code, err := engine.GenerateCode(key.Secret, at)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	tests := []struct {
		name string
		code string
		at   time.Time
		want bool
	}{
		{name: "same step", code: code, at: at, want: true},
		{name: "one step later within skew", code: code, at: at.Add(30 * time.Second), want: true},
		{name: "far in the future", code: code, at: at.Add(10 * time.Minute), want: false},
		{name: "empty code", code: "", at: at, want: false},
		{name: "wrong length", code: "12345", at: at, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Validate(tt.code, key.Secret, tt.at); got != tt.want {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}

	if engine.Validate(code, "", at) {
		t.Fatalf("empty secret must not validate")
	}
}

func TestNewTOTP_Defaults(t *testing.T) {
	engine := NewTOTP(Config{Digits: libOTP.Digits(7)})

	if engine.digits != libOTP.DigitsSix || engine.period != 30 || engine.skew != 1 || engine.SecretSize() != 20 {
		t.Fatalf("unexpected defaults: %+v", engine)
	}
}

func TestNewTOTP_ExplicitZeroSkew(t *testing.T) {
	zero := uint(0)
	engine := NewTOTP(Config{Issuer: "gotp", Skew: &zero})
	if engine.skew != 0 {
		t.Fatalf("skew = %d, want 0", engine.skew)
	}

	key, err := engine.Generate("carol")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code, err := engine.GenerateCode(key.Secret, at)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	if !engine.Validate(code, key.Secret, at) {
		t.Fatalf("code must validate in its own step")
	}
	if engine.Validate(code, key.Secret, at.Add(30*time.Second)) {
		t.Fatalf("code must not validate in the next step when skew is 0")
	}
}
