package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ceasar/auth-service/internal/api/metrics"
	"github.com/ceasar/auth-service/internal/core/domain"
	"github.com/ceasar/auth-service/internal/core/ports"
)

// isoMillis matches JavaScript's Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type AuthHandler struct {
	authService ports.AuthService
	audit       ports.AuditRecorder
	now         func() time.Time
}

// NewAuthHandler builds the auth handlers. audit may be nil.
func NewAuthHandler(authService ports.AuthService, audit ports.AuditRecorder) *AuthHandler {
	return &AuthHandler{authService: authService, audit: audit, now: time.Now}
}

func (h *AuthHandler) record(c echo.Context, event domain.AuditEvent) {
	if h.audit == nil {
		return
	}
	event.RemoteIP = c.RealIP()
	event.At = h.now().UTC()
	h.audit.Enqueue(event)
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type validateRequest struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type validateResponse struct {
	Valid     bool              `json:"valid"`
	Message   string            `json:"message"`
	User      *domain.TokenUser `json:"user,omitempty"`
	ExpiresAt string            `json:"expiresAt,omitempty"`
}

type meResponse struct {
	User      domain.TokenUser `json:"user"`
	ExpiresAt string           `json:"expiresAt"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Username and password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}

	user, err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			h.record(c, domain.AuditEvent{Type: domain.AuditRegisterFailed, Username: req.Username, Reason: "duplicate"})
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Username already exists"})
		case errors.Is(err, domain.ErrValidation):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid payload"})
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	h.record(c, domain.AuditEvent{Type: domain.AuditRegistered, Username: user.Username, UserID: user.ID})
	return c.JSON(http.StatusOK, messageResponse{Message: "User registered successfully"})
}

// Login authenticates a user and returns a signed token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Username and password"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}

	issued, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			h.record(c, domain.AuditEvent{Type: domain.AuditLoginFailed, Username: req.Username, Reason: "invalid_credentials"})
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid username or password"})
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.record(c, domain.AuditEvent{Type: domain.AuditLoginSucceeded, Username: issued.User.Username, UserID: issued.User.ID})
	return c.JSON(http.StatusOK, loginResponse{
		Token:     issued.Token,
		ExpiresAt: formatTime(issued.ExpiresAt),
	})
}

// Validate checks a token and returns the identity it carries.
//
// @Summary      Validate a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      validateRequest  true  "Token to validate"
// @Success      200   {object}  validateResponse
// @Failure      400   {object}  validateResponse
// @Failure      401   {object}  validateResponse
// @Failure      500   {object}  errorBody
// @Router       /validate [post]
func (h *AuthHandler) Validate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		metrics.ValidationsTotal.WithLabelValues("missing").Inc()
		return c.JSON(http.StatusBadRequest, validateResponse{
			Valid:   false,
			Message: domain.Verdict{Reason: domain.ErrTokenMissing}.Message(),
		})
	}

	verdict, err := h.authService.Validate(c.Request().Context(), req.Token)
	if err != nil {
		metrics.ValidationsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.ValidationsTotal.WithLabelValues(metrics.VerdictLabel(verdict)).Inc()

	resp := validateResponse{
		Valid:     verdict.Valid,
		Message:   verdict.Message(),
		User:      verdict.User,
		ExpiresAt: formatTime(verdict.ExpiresAt),
	}
	if !verdict.Valid {
		resp.User = nil
		h.record(c, domain.AuditEvent{Type: domain.AuditTokenRejected, Reason: metrics.VerdictLabel(verdict)})
		return c.JSON(http.StatusUnauthorized, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Me returns the identity of the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, expiresAt, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{User: user, ExpiresAt: formatTime(expiresAt)})
}

func bindCredentials(c echo.Context) (credentialsRequest, error) {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return req, errors.New("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return req, err
	}
	return req, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoMillis)
}
