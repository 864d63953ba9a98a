package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicd/internal/platform/kv"
)

func newTestHandler() (*Handler, *Store, *echo.Echo) {
	store := NewStore(kv.NewMemoryStore(), zerolog.Nop(), WithIDGenerator(testIDs()))
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	return NewHandler(store, issuer), store, echo.New()
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Register(t *testing.T) {
	h, store, e := newTestHandler()
	c, rec := postJSON(e, "/api/v1/auth/register", `{"name":"Al","email":"al@x.com","password":"secret1","age":"30"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if len(store.Credentials()) != 1 {
		t.Error("expected credential stored")
	}
}

func TestHandler_Register_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"al@x.com","password":"secret1","age":"30"}`},
		{"bad email", `{"name":"Al","email":"not-an-email","password":"secret1","age":"30"}`},
		{"short password", `{"name":"Al","email":"al@x.com","password":"abc","age":"30"}`},
		{"non-numeric age", `{"name":"Al","email":"al@x.com","password":"secret1","age":"old"}`},
		{"negative age", `{"name":"Al","email":"al@x.com","password":"secret1","age":"-4"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, store, e := newTestHandler()
			c, _ := postJSON(e, "/api/v1/auth/register", tc.body)
			err := h.Register(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %v", err)
			}
			if len(store.Credentials()) != 0 {
				t.Error("store must not be touched on validation failure")
			}
		})
	}
}

func TestHandler_Register_Duplicate(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := postJSON(e, "/api/v1/auth/register", `{"name":"Al","email":"a@b.com","password":"secret1","age":"30"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("first register: %v", err)
	}
	c, _ = postJSON(e, "/api/v1/auth/register", `{"name":"Bo","email":"a@b.com","password":"secret2","age":"41"}`)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_LoginAndSession(t *testing.T) {
	h, store, e := newTestHandler()
	store.Register("Al", "al@x.com", "secret1", "30")

	c, rec := postJSON(e, "/api/v1/auth/login", `{"email":"al@x.com","password":"secret1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.User.Name != "Al" {
		t.Errorf("unexpected user %+v", resp.User)
	}

	// Session probe reflects the active session.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	rec = httptest.NewRecorder()
	if err := h.CurrentSession(e.NewContext(req, rec)); err != nil {
		t.Fatalf("session: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Login_BadCredentials(t *testing.T) {
	h, store, e := newTestHandler()
	store.Register("Al", "al@x.com", "secret1", "30")

	c, _ := postJSON(e, "/api/v1/auth/login", `{"email":"al@x.com","password":"wrong"}`)
	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRequireToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	e := echo.New()
	next := func(c echo.Context) error {
		sess, ok := FromContext(c)
		if !ok || sess.ID != "u1" {
			t.Errorf("expected session on context, got %+v ok=%v", sess, ok)
		}
		return c.NoContent(http.StatusOK)
	}
	handler := RequireToken(issuer)(next)

	token, _ := issuer.Issue(Session{ID: "u1", Name: "Al"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Missing and malformed headers are rejected.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err == nil {
		t.Error("expected error for missing header")
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err == nil {
		t.Error("expected error for malformed header")
	}
}
