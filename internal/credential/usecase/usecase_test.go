package usecase

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/otp"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
)

const (
	aliceID   int64 = 1001
	botID     int64 = 2001
	serviceID       = "svc-billing"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu      sync.Mutex
	users   map[int64]entity.User
	creds   map[string]entity.Credential
	creates int
	replace []bool
	getErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: map[int64]entity.User{
			aliceID: {ID: aliceID, Username: "alice", Email: "alice@example.com"},
			botID:   {ID: botID, Username: "deploy-bot", IsServiceAccount: true},
		},
		creds: map[string]entity.Credential{},
	}
}

func credKey(userID int64, typ, device string) string {
	return strconv.FormatInt(userID, 10) + "/" + typ + "/" + device
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeRepo) GetCredential(_ context.Context, userID int64, typ, device string) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.creds[credKey(userID, typ, device)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepo) ListCredentials(_ context.Context, userID int64, typ string) ([]entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []entity.Credential
	for _, c := range f.creds {
		if c.UserID == userID && c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateCredential(_ context.Context, cred entity.Credential, replace bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	f.replace = append(f.replace, replace)

	k := credKey(cred.UserID, cred.Type, cred.DeviceName)
	if _, ok := f.creds[k]; ok && !replace {
		return goerror.ErrConflict
	}
	f.creds[k] = cred
	return nil
}

func (f *fakeRepo) DeleteCredential(_ context.Context, userID int64, typ, device string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := credKey(userID, typ, device)
	if _, ok := f.creds[k]; !ok {
		return goerror.ErrNotFound
	}
	delete(f.creds, k)
	return nil
}

func (f *fakeRepo) put(c entity.Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds[credKey(c.UserID, c.Type, c.DeviceName)] = c
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []CredentialEvent
}

func (f *fakeMessaging) PublishCredentialEvent(_ context.Context, ev CredentialEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

type fakeEnforcer struct {
	allow bool
	err   error
}

func (f fakeEnforcer) Enforce(...any) (bool, error) { return f.allow, f.err }

type fakeIdempotency struct {
	err   error
	calls int
}

func (f *fakeIdempotency) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type harness struct {
	uc     *Usecase
	repo   *fakeRepo
	mq     *fakeMessaging
	idemp  *fakeIdempotency
	engine *otp.TOTP
	gm     *goroutine.Manager
}

func newHarness(t *testing.T, enf fakeEnforcer) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	h := &harness{
		repo:   newFakeRepo(),
		mq:     &fakeMessaging{},
		idemp:  &fakeIdempotency{},
		engine: otp.NewTOTP(otp.Config{Issuer: "gotp"}),
		gm:     goroutine.NewManager(4),
	}

	h.uc = New(Dependency{
		RepoDB:        h.repo,
		RepoMessaging: h.mq,
		Idempotency:   h.idemp,
		Validator:     v,
		Totp:          h.engine,
		UID:           &seqID{},
		Clock:         clock.Fixed(fixedNow),
		Instrument:    instrument.NewNoop(),
		Enforcer:      enf,
		Goroutine:     h.gm,
		Rand:          bytes.NewReader(bytes.Repeat([]byte{0xA5}, 64)),
	})

	return h
}

// events drains background publishing and returns what was sent.
func (h *harness) events(t *testing.T) []CredentialEvent {
	t.Helper()

	if err := h.gm.Wait(); err != nil {
		t.Fatalf("goroutine wait: %v", err)
	}
	h.mq.mu.Lock()
	defer h.mq.mu.Unlock()
	return append([]CredentialEvent(nil), h.mq.events...)
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

func serviceCtx() context.Context {
	clm := jwt.Claims{Principal: jwt.PrincipalService}
	clm.Subject = serviceID
	return jwt.SetAuth(context.Background(), clm)
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

func TestAuthorizeTarget(t *testing.T) {
	userClaims := jwt.Claims{Principal: jwt.Principal("user")}
	userClaims.Subject = "42"

	tests := []struct {
		name   string
		ctx    context.Context
		enf    fakeEnforcer
		userID int64
		status int
		msg    string
	}{
		{name: "no claims", ctx: context.Background(), enf: fakeEnforcer{allow: true}, userID: aliceID, status: 401, msg: "Authentication required"},
		{name: "user principal", ctx: jwt.SetAuth(context.Background(), userClaims), enf: fakeEnforcer{allow: true}, userID: aliceID, status: 403, msg: "Account not allowed"},
		{name: "role missing", ctx: serviceCtx(), enf: fakeEnforcer{}, userID: aliceID, status: 403, msg: "Account not allowed"},
		{name: "enforcer failure", ctx: serviceCtx(), enf: fakeEnforcer{err: errors.New("db down")}, userID: aliceID, status: 500, msg: "Internal server error"},
		{name: "unknown user", ctx: serviceCtx(), enf: fakeEnforcer{allow: true}, userID: 9999, status: 404, msg: "User not found"},
		{name: "service account target", ctx: serviceCtx(), enf: fakeEnforcer{allow: true}, userID: botID, status: 400, msg: "Service account cannot hold TOTP credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.enf)
			_, err := h.uc.Generate(tt.ctx, GenerateInput{UserID: tt.userID})
			assertBusiness(t, err, tt.status, tt.msg)
		})
	}
}
