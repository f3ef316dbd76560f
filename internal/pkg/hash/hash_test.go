package hash

import (
	"strings"
	"testing"
)

func TestArgon2id(t *testing.T) {
	h := NewArgon2id("pepper")

	hashed, err := h.Hash("client-secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(string(hashed), "$argon2id$v=19$m=32768,t=3,p=2$") {
		t.Fatalf("unexpected encoding %q", hashed)
	}

	if !h.Verify(string(hashed), "client-secret") {
		t.Fatalf("Verify should accept the original secret")
	}
	if h.Verify(string(hashed), "other") {
		t.Fatalf("Verify should reject a different secret")
	}
	if NewArgon2id("other-pepper").Verify(string(hashed), "client-secret") {
		t.Fatalf("Verify should depend on the pepper")
	}
	if h.Verify("$argon2id$broken", "client-secret") || h.Verify(string(hashed), "") {
		t.Fatalf("Verify should reject malformed input")
	}
}

func TestDispatch(t *testing.T) {
	argon := NewArgon2id("p")
	bc := NewBcrypt(4, "p")
	d := NewDispatch(argon, bc)

	fresh, err := d.Hash("s3cr3t")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !argon.Recognizes(string(fresh)) {
		t.Fatalf("new hashes must use argon2id, got %q", fresh)
	}

	legacy, err := bc.Hash("s3cr3t")
	if err != nil {
		t.Fatalf("bcrypt Hash: %v", err)
	}

	tests := []struct {
		name   string
		hashed string
		secret string
		want   bool
	}{
		{name: "argon2id match", hashed: string(fresh), secret: "s3cr3t", want: true},
		{name: "bcrypt match", hashed: string(legacy), secret: "s3cr3t", want: true},
		{name: "bcrypt mismatch", hashed: string(legacy), secret: "nope", want: false},
		{name: "unknown algorithm", hashed: "$md5$abc", secret: "s3cr3t", want: false},
		{name: "empty hash", hashed: "", secret: "s3cr3t", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Verify(tt.hashed, tt.secret); got != tt.want {
				t.Fatalf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}
