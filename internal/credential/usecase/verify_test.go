package usecase

import (
	"testing"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/saltedsecret"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

func TestUsecase_Verify(t *testing.T) {
	h := newHarness(t, fakeEnforcer{allow: true})

	saltedRaw, _ := h.freshSecret(t)
	salted, err := saltedsecret.Encode(saltedRaw, []byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	legacyRaw, _ := h.freshSecret(t)

	h.repo.put(entity.Credential{ID: 1, UserID: aliceID, Type: entity.TypeOTP, DeviceName: "phone", Secret: salted})
	h.repo.put(entity.Credential{ID: 2, UserID: aliceID, Type: entity.TypeOTP, DeviceName: "old-phone", Secret: legacyRaw})

	saltedCode, _ := h.engine.GenerateCode(saltedRaw, fixedNow)
	legacyCode, _ := h.engine.GenerateCode(legacyRaw, fixedNow)

	tests := []struct {
		name   string
		device string
		code   string
		status int
		msg    string
		action event.CredentialAction
		reason string
	}{
		{name: "salted ok", device: "phone", code: saltedCode, action: event.CredentialVerified},
		{name: "legacy ok", device: "old-phone", code: legacyCode, action: event.CredentialVerified},
		{name: "wrong code", device: "phone", code: flipDigit(saltedCode), status: 401, msg: "invalid code",
			action: event.CredentialVerifyFailed, reason: "invalid_code"},
		{name: "code of other device", device: "phone", code: legacyCode, status: 401, msg: "invalid code",
			action: event.CredentialVerifyFailed, reason: "invalid_code"},
		{name: "unknown device", device: "watch", code: saltedCode, status: 401, msg: "credential not found",
			action: event.CredentialVerifyFailed, reason: "credential_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.uc.Verify(serviceCtx(), VerifyInput{UserID: aliceID, DeviceName: tt.device, Code: tt.code})
			if tt.status == 0 {
				if err != nil {
					t.Fatalf("Verify: %v", err)
				}
				return
			}
			assertBusiness(t, err, tt.status, tt.msg)
		})
	}

	evs := h.events(t)
	if len(evs) != len(tests) {
		t.Fatalf("events = %d, want %d", len(evs), len(tests))
	}
	for _, tt := range tests {
		found := false
		for _, ev := range evs {
			if ev.DeviceName == tt.device && ev.Action == tt.action && ev.Reason == tt.reason {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing event for %q", tt.name)
		}
	}

	old, _ := h.repo.GetCredential(t.Context(), aliceID, entity.TypeOTP, "old-phone")
	if old.Secret != legacyRaw {
		t.Fatal("legacy credential was rewritten by verify")
	}
	if h.repo.creates != 0 {
		t.Fatal("verify wrote to the store")
	}
}

func TestUsecase_Verify_Validation(t *testing.T) {
	h := newHarness(t, fakeEnforcer{allow: true})

	tests := []VerifyInput{
		{UserID: aliceID, DeviceName: "phone", Code: "12345"},
		{UserID: aliceID, DeviceName: "phone", Code: ""},
		{UserID: aliceID, DeviceName: "", Code: "123456"},
		{UserID: 0, DeviceName: "phone", Code: "123456"},
	}

	for _, in := range tests {
		assertBusiness(t, h.uc.Verify(serviceCtx(), in), 400, "Validation error")
	}
}
