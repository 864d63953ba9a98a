package session

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Handler exposes the session store over HTTP. Field validation lives
// here, not in the store: the store only ever sees well-formed input.
type Handler struct {
	store  *Store
	issuer *TokenIssuer
}

func NewHandler(store *Store, issuer *TokenIssuer) *Handler {
	return &Handler{store: store, issuer: issuer}
}

// RegisterRoutes mounts the public auth endpoints on the unauthenticated
// group and the session probe on the authenticated one.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/session", h.CurrentSession)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      string `json:"age"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  Session `json:"user"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if msgs := validateRegistration(req); len(msgs) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
	}
	if !h.store.Register(req.Name, req.Email, req.Password, req.Age) {
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	sess, ok := h.store.Login(req.Email, req.Password)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	token, err := h.issuer.Issue(sess)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "issuing token")
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: sess})
}

func (h *Handler) Logout(c echo.Context) error {
	h.store.Logout()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CurrentSession(c echo.Context) error {
	sess, ok := h.store.Current()
	if !ok {
		// Token outlived the persisted session; fall back to the token's
		// own identity so a stateless client keeps working.
		if tokenSess, tok := FromContext(c); tok {
			return c.JSON(http.StatusOK, tokenSess)
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}
	return c.JSON(http.StatusOK, sess)
}

func validateRegistration(req registerRequest) []string {
	var msgs []string
	if strings.TrimSpace(req.Name) == "" {
		msgs = append(msgs, "name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		msgs = append(msgs, "email is required")
	} else if !strings.Contains(req.Email, "@") {
		msgs = append(msgs, "email is invalid")
	}
	if req.Age == "" {
		msgs = append(msgs, "age is required")
	} else if n, err := strconv.Atoi(req.Age); err != nil || n <= 0 {
		msgs = append(msgs, "age must be a positive number")
	}
	if req.Password == "" {
		msgs = append(msgs, "password is required")
	} else if len(req.Password) < 6 {
		msgs = append(msgs, "password must be at least 6 characters")
	}
	return msgs
}
