package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/credential/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/clock"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
	"github.com/shandysiswandi/gotp/internal/pkg/otp"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/pkg/validator"
)

const aliceID int64 = 1001

type memRepo struct {
	mu    sync.Mutex
	creds map[string]entity.Credential
}

func key(userID int64, typ, device string) string {
	return strconv.FormatInt(userID, 10) + "/" + typ + "/" + device
}

func (m *memRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	if id != aliceID {
		return nil, goerror.ErrNotFound
	}
	return &entity.User{ID: aliceID, Username: "alice", Email: "alice@example.com"}, nil
}

func (m *memRepo) GetCredential(_ context.Context, userID int64, typ, device string) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.creds[key(userID, typ, device)]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) ListCredentials(_ context.Context, userID int64, typ string) ([]entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.Credential
	for _, c := range m.creds {
		if c.UserID == userID && c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) CreateCredential(_ context.Context, cred entity.Credential, replace bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(cred.UserID, cred.Type, cred.DeviceName)
	if _, ok := m.creds[k]; ok && !replace {
		return goerror.ErrConflict
	}
	m.creds[k] = cred
	return nil
}

func (m *memRepo) DeleteCredential(_ context.Context, userID int64, typ, device string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(userID, typ, device)
	if _, ok := m.creds[k]; !ok {
		return goerror.ErrNotFound
	}
	delete(m.creds, k)
	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishCredentialEvent(context.Context, usecase.CredentialEvent) error { return nil }

type allowAll struct{}

func (allowAll) Enforce(...any) (bool, error) { return true, nil }

type server struct {
	handler http.Handler
	tokens  *jwt.Symmetric
	engine  *otp.TOTP
	repo    *memRepo
}

func newServer(t *testing.T) *server {
	t.Helper()

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte("k"), 64),
		Issuer:    "gotp",
		Audiences: []string{"gotp-api"},
		TTL:       time.Minute,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	sf, err := uid.NewSnowflakeNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	ins := instrument.NewNoop()
	engine := otp.NewTOTP(otp.Config{Issuer: "gotp"})
	repo := &memRepo{creds: map[string]entity.Credential{}}

	gm := goroutine.NewManager(4)
	t.Cleanup(func() { _ = gm.Wait() })

	r := router.NewRouter(router.Config{UUID: uid.NewUUID(), JWT: tokens, Instrument: ins})
	RegisterHTTPEndpoint(r, usecase.New(usecase.Dependency{
		RepoDB:        repo,
		RepoMessaging: nopPublisher{},
		Validator:     v,
		Totp:          engine,
		UID:           sf,
		Clock:         clock.New(),
		Instrument:    ins,
		Enforcer:      allowAll{},
		Goroutine:     gm,
	}))

	return &server{handler: r, tokens: tokens, engine: engine, repo: repo}
}

func (s *server) token(t *testing.T, p jwt.Principal) string {
	t.Helper()

	tok, _, err := s.tokens.Generate(p, "svc-billing")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func (s *server) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func (s *server) enroll(t *testing.T, token, device string) string {
	t.Helper()

	status, env := s.do(t, http.MethodGet, "/api/v1/totp/1001/generate", token, nil)
	if status != http.StatusOK {
		t.Fatalf("generate status = %d (%s)", status, env.Message)
	}
	var gen GenerateResponse
	if err := json.Unmarshal(env.Data, &gen); err != nil {
		t.Fatalf("decode generate: %v", err)
	}

	code, err := s.engine.GenerateCode(gen.EncodedSecret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	status, env = s.do(t, http.MethodPost, "/api/v1/totp/1001/register", token, RegisterRequest{
		EncodedSecret: gen.EncodedSecret, DeviceName: device, InitialCode: code,
	})
	if status != http.StatusCreated {
		t.Fatalf("register status = %d (%s)", status, env.Message)
	}
	return gen.EncodedSecret
}

func TestHTTP_RegisterThenVerify(t *testing.T) {
	s := newServer(t)
	token := s.token(t, jwt.PrincipalService)

	secret := s.enroll(t, token, "phone")

	code, _ := s.engine.GenerateCode(secret, time.Now())
	status, env := s.do(t, http.MethodPost, "/api/v1/totp/1001/verify", token, VerifyRequest{DeviceName: "phone", Code: code})
	if status != http.StatusOK || env.Message != "code is valid" {
		t.Fatalf("verify = %d %q", status, env.Message)
	}

	// verify again with the same code; verification does not consume codes
	status, _ = s.do(t, http.MethodPost, "/api/v1/totp/1001/verify", token, VerifyRequest{DeviceName: "phone", Code: code})
	if status != http.StatusOK {
		t.Fatalf("second verify = %d", status)
	}
}

func TestHTTP_DuplicateRegister(t *testing.T) {
	s := newServer(t)
	token := s.token(t, jwt.PrincipalService)
	s.enroll(t, token, "phone")

	key, err := s.engine.Generate("alice")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	code, _ := s.engine.GenerateCode(key.Secret, time.Now())

	status, env := s.do(t, http.MethodPost, "/api/v1/totp/1001/register", token, RegisterRequest{
		EncodedSecret: key.Secret, DeviceName: "phone", InitialCode: code,
	})
	if status != http.StatusConflict || env.Message != "Device already registered" {
		t.Fatalf("duplicate register = %d %q", status, env.Message)
	}

	status, _ = s.do(t, http.MethodPost, "/api/v1/totp/1001/register", token, RegisterRequest{
		EncodedSecret: key.Secret, DeviceName: "phone", InitialCode: code, Overwrite: true,
	})
	if status != http.StatusCreated {
		t.Fatalf("overwrite register = %d", status)
	}
}

func TestHTTP_VerifyFailures(t *testing.T) {
	s := newServer(t)
	token := s.token(t, jwt.PrincipalService)
	s.enroll(t, token, "phone")

	other, _ := s.engine.Generate("alice")
	wrong, _ := s.engine.GenerateCode(other.Secret, time.Now())

	tests := []struct {
		name   string
		device string
		code   string
		status int
		msg    string
	}{
		{name: "unknown device", device: "tablet", code: wrong, status: http.StatusUnauthorized, msg: "credential not found"},
		{name: "wrong code", device: "phone", code: wrong, status: http.StatusUnauthorized, msg: "invalid code"},
		{name: "malformed code", device: "phone", code: "abc", status: http.StatusBadRequest, msg: "Validation error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, http.MethodPost, "/api/v1/totp/1001/verify", token, VerifyRequest{DeviceName: tt.device, Code: tt.code})
			if status != tt.status || env.Message != tt.msg {
				t.Fatalf("verify = %d %q, want %d %q", status, env.Message, tt.status, tt.msg)
			}
		})
	}
}

func TestHTTP_RegisterBadSecretLength(t *testing.T) {
	s := newServer(t)
	token := s.token(t, jwt.PrincipalService)

	status, env := s.do(t, http.MethodPost, "/api/v1/totp/1001/register", token, RegisterRequest{
		EncodedSecret: "JBSWY3DPEHPK3PXP", DeviceName: "phone", InitialCode: "123456",
	})
	if status != http.StatusBadRequest || env.Message != "Invalid secret" {
		t.Fatalf("register = %d %q", status, env.Message)
	}
}

func TestHTTP_Authorization(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		token  string
		path   string
		status int
		msg    string
	}{
		{name: "no token", path: "/api/v1/totp/1001/generate", status: http.StatusUnauthorized, msg: "Authentication required"},
		{name: "garbage token", token: "not-a-jwt", path: "/api/v1/totp/1001/generate", status: http.StatusUnauthorized, msg: "Invalid or expired token"},
		{name: "user principal", token: s.token(t, jwt.Principal("user")), path: "/api/v1/totp/1001/generate", status: http.StatusForbidden, msg: "Account not allowed"},
		{name: "unknown user", token: s.token(t, jwt.PrincipalService), path: "/api/v1/totp/77/generate", status: http.StatusNotFound, msg: "User not found"},
		{name: "bad user id", token: s.token(t, jwt.PrincipalService), path: "/api/v1/totp/abc/generate", status: http.StatusBadRequest, msg: "Invalid path parameter userId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, http.MethodGet, tt.path, tt.token, nil)
			if status != tt.status || env.Message != tt.msg {
				t.Fatalf("got %d %q, want %d %q", status, env.Message, tt.status, tt.msg)
			}
		})
	}
}

func TestHTTP_ListAndRemove(t *testing.T) {
	s := newServer(t)
	token := s.token(t, jwt.PrincipalService)
	secret := s.enroll(t, token, "work phone")

	status, env := s.do(t, http.MethodGet, "/api/v1/totp/1001/credentials", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list = %d", status)
	}
	if strings.Contains(string(env.Data), secret) || strings.Contains(string(env.Data), "$ts1$") {
		t.Fatalf("list leaked secret material: %s", env.Data)
	}

	var list ListResponse
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Credentials) != 1 || list.Credentials[0].DeviceName != "work phone" || list.Credentials[0].Format != "salted" {
		t.Fatalf("credentials = %+v", list.Credentials)
	}

	status, _ = s.do(t, http.MethodDelete, "/api/v1/totp/1001/credentials/work%20phone", token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("remove = %d", status)
	}

	status, env = s.do(t, http.MethodDelete, "/api/v1/totp/1001/credentials/work%20phone", token, nil)
	if status != http.StatusNotFound || env.Message != "Credential not found" {
		t.Fatalf("second remove = %d %q", status, env.Message)
	}
}
