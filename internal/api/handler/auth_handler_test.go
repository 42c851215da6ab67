package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ceasar/auth-service/internal/api/middleware"
	"github.com/ceasar/auth-service/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (domain.IssuedToken, error)
	validateFn func(ctx context.Context, token string) (domain.Verdict, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (domain.IssuedToken, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Validate(ctx context.Context, token string) (domain.Verdict, error) {
	return s.validateFn(ctx, token)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *recordingAudit) Enqueue(e domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Register_Success(t *testing.T) {
	audit := &recordingAudit{}
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &domain.User{ID: "01H", Username: username}, nil
		},
	}
	handler := NewAuthHandler(stub, audit)

	c, rec := newContext(http.MethodPost, "/register", `{"username":"alice","password":"secret1"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decode(t, rec); resp["message"] != "User registered successfully" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.AuditRegistered || audit.events[0].UserID != "01H" {
		t.Fatalf("unexpected audit trail: %+v", audit.events)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub, nil)

	c, rec := newContext(http.MethodPost, "/register", `{"username":"bob","password":"secret1"}`)
	_ = handler.Register(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decode(t, rec); resp["error"] != "Username already exists" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "not json", body: "not-json", want: "invalid payload"},
		{name: "missing username", body: `{"password":"secret1"}`, want: "username is required"},
		{name: "short username", body: `{"username":"ab","password":"secret1"}`, want: "username length must be at least 3"},
		{name: "long username", body: `{"username":"` + strings.Repeat("a", 31) + `","password":"secret1"}`, want: "less than or equal to 30"},
		{name: "symbols in username", body: `{"username":"al!ce","password":"secret1"}`, want: "alpha-numeric"},
		{name: "short password", body: `{"username":"alice","password":"12345"}`, want: "password length must be at least 6"},
		{name: "long password", body: `{"username":"alice","password":"` + strings.Repeat("a", 73) + `"}`, want: "password length must be less than or equal to 72"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/register", tt.body)
			_ = handler.Register(c)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			msg, _ := decode(t, rec)["error"].(string)
			if !strings.Contains(msg, tt.want) {
				t.Fatalf("expected error containing %q, got %q", tt.want, msg)
			}
		})
	}
}

func TestAuthHandler_Register_StoreFailure(t *testing.T) {
	boom := errors.New("store down")
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			return nil, boom
		},
	}
	handler := NewAuthHandler(stub, nil)

	c, _ := newContext(http.MethodPost, "/register", `{"username":"alice","password":"secret1"}`)
	if err := handler.Register(c); !errors.Is(err, boom) {
		t.Fatalf("expected error to reach the error handler, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	exp := time.Date(2024, 1, 1, 12, 10, 0, 0, time.UTC)
	audit := &recordingAudit{}
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (domain.IssuedToken, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return domain.IssuedToken{
				Token:     "token123",
				ExpiresAt: exp,
				User:      domain.TokenUser{ID: "01H", Username: "alice", Permissions: []string{"user"}},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, audit)

	c, rec := newContext(http.MethodPost, "/login", `{"username":"alice","password":"secret1"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	if resp["expiresAt"] != "2024-01-01T12:10:00.000Z" {
		t.Fatalf("unexpected expiresAt: %v", resp["expiresAt"])
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.AuditLoginSucceeded || audit.events[0].UserID != "01H" {
		t.Fatalf("unexpected audit trail: %+v", audit.events)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	audit := &recordingAudit{}
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (domain.IssuedToken, error) {
			return domain.IssuedToken{}, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, audit)

	c, rec := newContext(http.MethodPost, "/login", `{"username":"alice","password":"wrongpw"}`)
	_ = handler.Login(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decode(t, rec); resp["error"] != "Invalid username or password" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if len(audit.events) != 1 || audit.events[0].Type != domain.AuditLoginFailed {
		t.Fatalf("unexpected audit trail: %+v", audit.events)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (domain.IssuedToken, error) {
			t.Fatalf("should not be called")
			return domain.IssuedToken{}, nil
		},
	}
	handler := NewAuthHandler(stub, nil)

	c, rec := newContext(http.MethodPost, "/login", `{"username":"alice"}`)
	_ = handler.Login(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Validate(t *testing.T) {
	exp := time.Date(2024, 1, 1, 12, 10, 0, 0, time.UTC)
	user := &domain.TokenUser{ID: "01H", Username: "alice", Permissions: []string{"user"}}

	tests := []struct {
		name        string
		body        string
		verdict     domain.Verdict
		status      int
		valid       bool
		message     string
		wantUser    bool
		wantExpires bool
	}{
		{
			name:    "missing token",
			body:    `{}`,
			status:  http.StatusBadRequest,
			message: "Token is required",
		},
		{
			name:    "empty token",
			body:    `{"token":""}`,
			status:  http.StatusBadRequest,
			message: "Token is required",
		},
		{
			name:        "valid",
			body:        `{"token":"abc"}`,
			verdict:     domain.Verdict{Valid: true, User: user, ExpiresAt: exp},
			status:      http.StatusOK,
			valid:       true,
			message:     "Token is valid",
			wantUser:    true,
			wantExpires: true,
		},
		{
			name:        "expired",
			body:        `{"token":"abc"}`,
			verdict:     domain.Verdict{Reason: domain.ErrTokenExpired, User: user, ExpiresAt: exp},
			status:      http.StatusUnauthorized,
			message:     "Token has expired",
			wantExpires: true,
		},
		{
			name:    "signature mismatch",
			body:    `{"token":"abc"}`,
			verdict: domain.Verdict{Reason: domain.ErrTokenSignatureMismatch},
			status:  http.StatusUnauthorized,
			message: "Token signature is invalid",
		},
		{
			name:    "user deleted",
			body:    `{"token":"abc"}`,
			verdict: domain.Verdict{Reason: domain.ErrTokenUserNotFound},
			status:  http.StatusUnauthorized,
			message: "User not found",
		},
		{
			name:    "malformed",
			body:    `{"token":"abc"}`,
			verdict: domain.Verdict{Reason: domain.ErrTokenMalformed},
			status:  http.StatusUnauthorized,
			message: "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{
				validateFn: func(ctx context.Context, token string) (domain.Verdict, error) {
					return tt.verdict, nil
				},
			}
			c, rec := newContext(http.MethodPost, "/validate", tt.body)
			if err := NewAuthHandler(stub, nil).Validate(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			resp := decode(t, rec)
			if resp["valid"] != tt.valid {
				t.Fatalf("expected valid=%v, got %v", tt.valid, resp["valid"])
			}
			if resp["message"] != tt.message {
				t.Fatalf("expected message %q, got %v", tt.message, resp["message"])
			}
			if _, ok := resp["user"]; ok != tt.wantUser {
				t.Fatalf("user presence: want %v, body %+v", tt.wantUser, resp)
			}
			if _, ok := resp["expiresAt"]; ok != tt.wantExpires {
				t.Fatalf("expiresAt presence: want %v, body %+v", tt.wantExpires, resp)
			}
		})
	}
}

func TestAuthHandler_Validate_StoreFailure(t *testing.T) {
	boom := errors.New("store down")
	stub := &stubAuthService{
		validateFn: func(ctx context.Context, token string) (domain.Verdict, error) {
			return domain.Verdict{}, boom
		},
	}
	c, _ := newContext(http.MethodPost, "/validate", `{"token":"abc"}`)
	if err := NewAuthHandler(stub, nil).Validate(c); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/me", "")
	c.Set(middleware.ContextKeyUser, domain.TokenUser{ID: "01H", Username: "alice", Permissions: []string{"user"}})
	c.Set(middleware.ContextKeyExpiresAt, time.Date(2024, 1, 1, 12, 10, 0, 0, time.UTC))

	if err := NewAuthHandler(&stubAuthService{}, nil).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "alice" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestAuthHandler_Me_WithoutIdentity(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/me", "")
	err := NewAuthHandler(&stubAuthService{}, nil).Me(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 http error, got %v", err)
	}
}
