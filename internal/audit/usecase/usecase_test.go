package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/audit/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/mail"
	"github.com/shandysiswandi/gotp/internal/pkg/storage"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu         sync.Mutex
	events     []entity.Event
	recipients map[int64]entity.Recipient
	createErr  error
	listErr    error
	filters    []entity.EventFilter
}

func (f *fakeRepo) CreateEvent(_ context.Context, ev entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRepo) ListEvents(_ context.Context, flt entity.EventFilter) ([]entity.Event, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filters = append(f.filters, flt)
	if f.listErr != nil {
		return nil, 0, f.listErr
	}

	var match []entity.Event
	for _, ev := range f.events {
		if flt.UserID != 0 && ev.UserID != flt.UserID {
			continue
		}
		match = append(match, ev)
	}
	sort.Slice(match, func(i, j int) bool { return match[i].OccurredAt.After(match[j].OccurredAt) })

	total := int64(len(match))
	start := min(int(flt.Offset), len(match))
	end := min(start+int(flt.Limit), len(match))
	return match[start:end], total, nil
}

func (f *fakeRepo) GetRecipient(_ context.Context, userID int64) (*entity.Recipient, error) {
	r, ok := f.recipients[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &r, nil
}

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeStorage struct {
	objects map[string][]byte
	opts    storage.PutOptions
	putErr  error
}

func (f *fakeStorage) Put(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+key] = data
	f.opts = opts
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStorage) Delete(context.Context, string, string) error { return nil }

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://files.example.com/" + bucket + "/" + key + "?sig=1", nil
}

func (f *fakeStorage) Close() error { return nil }

type fakeEnforcer struct {
	allow bool
	err   error
	calls [][]any
}

func (f *fakeEnforcer) Enforce(rvals ...any) (bool, error) {
	f.calls = append(f.calls, rvals)
	return f.allow, f.err
}

type seqID struct{ n int64 }

func (s *seqID) Generate() int64 {
	s.n++
	return s.n
}

type harness struct {
	uc      *Usecase
	repo    *fakeRepo
	mail    *fakeMail
	storage *fakeStorage
	enf     *fakeEnforcer
}

const testConfig = `
modules:
  audit:
    export:
      bucket: audit-exports
      max_rows: 3
      url_ttl_minutes: 10
`

func newHarness(t *testing.T, cfgYAML string) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	h := &harness{
		repo: &fakeRepo{recipients: map[int64]entity.Recipient{
			1: {UserID: 1, Username: "alice", Email: "alice@example.com"},
			2: {UserID: 2, Username: "bob"},
		}},
		mail:    &fakeMail{},
		storage: &fakeStorage{},
		enf:     &fakeEnforcer{allow: true},
	}
	h.uc = New(Dependency{
		RepoDB:     h.repo,
		RepoMail:   h.mail,
		Storage:    h.storage,
		Validator:  v,
		Config:     cfg,
		UID:        &seqID{n: 500},
		Clock:      clock.Fixed(fixedNow),
		Instrument: instrument.NewNoop(),
		Enforcer:   h.enf,
	})

	return h
}

func serviceCtx() context.Context {
	clm := jwt.Claims{Principal: jwt.PrincipalService}
	clm.Subject = "svc-auditor"
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

func TestAuthenticatedAndAuthorized(t *testing.T) {
	userClaims := jwt.Claims{Principal: jwt.Principal("user")}
	userClaims.Subject = "42"

	tests := []struct {
		name   string
		ctx    context.Context
		enf    fakeEnforcer
		status int
		msg    string
	}{
		{name: "no claims", ctx: context.Background(), enf: fakeEnforcer{allow: true}, status: 401, msg: "Authentication required"},
		{name: "user principal", ctx: jwt.SetAuth(context.Background(), userClaims), enf: fakeEnforcer{allow: true}, status: 403, msg: "Account not allowed"},
		{name: "role missing", ctx: serviceCtx(), enf: fakeEnforcer{}, status: 403, msg: "Account not allowed"},
		{name: "enforcer failure", ctx: serviceCtx(), enf: fakeEnforcer{err: errors.New("db down")}, status: 500, msg: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig)
			*h.enf = tt.enf

			_, err := h.uc.ListEvents(tt.ctx, ListEventsInput{})
			assertBusiness(t, err, tt.status, tt.msg)
		})
	}

	h := newHarness(t, testConfig)
	if _, err := h.uc.ListEvents(serviceCtx(), ListEventsInput{}); err != nil {
		t.Fatalf("allowed ListEvents: %v", err)
	}
	if got := h.enf.calls[0]; got[0] != "svc-auditor" || got[1] != "audit" || got[2] != "read" {
		t.Fatalf("Enforce args = %v", got)
	}
}
