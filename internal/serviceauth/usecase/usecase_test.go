package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/hash"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
	"github.com/shandysiswandi/gotp/internal/serviceauth/entity"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu      sync.Mutex
	clients map[string]entity.Client
	err     error
}

func (f *fakeRepo) GetClientByClientID(_ context.Context, clientID string) (*entity.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.clients[clientID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepo) CreateClient(_ context.Context, c entity.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.clients[c.ClientID]; ok {
		return goerror.ErrConflict
	}
	f.clients[c.ClientID] = c
	return nil
}

type fakeRoles struct {
	grants [][2]string
}

func (f *fakeRoles) AddRoleForUser(user, role string, _ ...string) (bool, error) {
	for _, g := range f.grants {
		if g == [2]string{user, role} {
			return false, nil
		}
	}
	f.grants = append(f.grants, [2]string{user, role})
	return true, nil
}

type seq struct{ n int64 }

func (s *seq) Generate() int64 { s.n++; return s.n }

func newUsecase(t *testing.T) (*Usecase, *fakeRepo, *fakeRoles, *jwt.Symmetric) {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte("s"), 64),
		Issuer:    "gotp",
		Audiences: []string{"gotp-api"},
		TTL:       15 * time.Minute,
		Clock:     clock.Fixed(now),
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	repo := &fakeRepo{clients: map[string]entity.Client{}}
	roles := &fakeRoles{}

	uc := New(Dependency{
		RepoDB:     repo,
		Validator:  v,
		Hash:       hash.NewDispatch(hash.NewArgon2id("pepper"), hash.NewBcrypt(4, "pepper")),
		JWT:        tokens,
		UID:        &seq{},
		Clock:      clock.Fixed(now),
		Instrument: instrument.NewNoop(),
		Roles:      roles,
	})

	return uc, repo, roles, tokens
}

func assertBusiness(t *testing.T, err error, status int, msg string) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *goerror.Error", err)
	}
	if gerr.StatusCode() != status || gerr.Msg() != msg {
		t.Fatalf("error = %d %q, want %d %q", gerr.StatusCode(), gerr.Msg(), status, msg)
	}
}

func TestUsecase_IssueToken(t *testing.T) {
	uc, repo, _, tokens := newUsecase(t)

	if err := uc.EnsureClient(t.Context(), EnsureClientInput{ClientID: "svc-billing", Secret: "billing-secret-0001"}); err != nil {
		t.Fatalf("EnsureClient: %v", err)
	}
	if err := uc.EnsureClient(t.Context(), EnsureClientInput{ClientID: "svc-retired", Secret: "retired-secret-0001"}); err != nil {
		t.Fatalf("EnsureClient: %v", err)
	}
	retired := repo.clients["svc-retired"]
	retired.IsActive = false
	repo.clients["svc-retired"] = retired

	out, err := uc.IssueToken(t.Context(), IssueTokenInput{ClientID: " svc-billing ", ClientSecret: "billing-secret-0001"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if out.TokenType != "Bearer" || out.ExpiresIn != int64((15*time.Minute).Seconds()) {
		t.Fatalf("output = %+v", out)
	}

	clm, err := tokens.Verify(out.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !clm.IsService() || clm.Subject != "svc-billing" {
		t.Fatalf("claims = %+v", clm)
	}

	tests := []struct {
		name string
		in   IssueTokenInput
	}{
		{name: "unknown client", in: IssueTokenInput{ClientID: "svc-ghost", ClientSecret: "billing-secret-0001"}},
		{name: "wrong secret", in: IssueTokenInput{ClientID: "svc-billing", ClientSecret: "nope"}},
		{name: "inactive client", in: IssueTokenInput{ClientID: "svc-retired", ClientSecret: "retired-secret-0001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.IssueToken(t.Context(), tt.in)
			assertBusiness(t, err, 401, "Invalid client credentials")
		})
	}
}

func TestUsecase_IssueToken_Failures(t *testing.T) {
	uc, repo, _, _ := newUsecase(t)

	_, err := uc.IssueToken(t.Context(), IssueTokenInput{ClientID: "", ClientSecret: "x"})
	assertBusiness(t, err, 400, "Validation error")

	repo.err = errors.New("connection reset")
	_, err = uc.IssueToken(t.Context(), IssueTokenInput{ClientID: "svc", ClientSecret: "x"})
	assertBusiness(t, err, 500, "Internal server error")
}

func TestUsecase_EnsureClient(t *testing.T) {
	uc, repo, roles, _ := newUsecase(t)

	in := EnsureClientInput{ClientID: "svc-ops", Name: "Ops", Secret: "ops-secret-000001", Role: "operator"}
	if err := uc.EnsureClient(t.Context(), in); err != nil {
		t.Fatalf("EnsureClient: %v", err)
	}
	first := repo.clients["svc-ops"]
	if first.Name != "Ops" || !first.IsActive || first.SecretHash == in.Secret {
		t.Fatalf("client = %+v", first)
	}

	in.Secret = "another-secret-0002"
	if err := uc.EnsureClient(t.Context(), in); err != nil {
		t.Fatalf("second EnsureClient: %v", err)
	}
	if repo.clients["svc-ops"].SecretHash != first.SecretHash {
		t.Fatal("existing client secret was replaced")
	}
	if len(roles.grants) != 1 || roles.grants[0] != [2]string{"svc-ops", "operator"} {
		t.Fatalf("grants = %v", roles.grants)
	}

	err := uc.EnsureClient(t.Context(), EnsureClientInput{ClientID: "svc-weak", Secret: "short"})
	assertBusiness(t, err, 400, "Validation error")
}
