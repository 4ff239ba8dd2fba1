package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	userID := uuid.New()
	patientID := uuid.New()

	token, err := issuer.Issue(userID, RolePatient, patientID)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Errorf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Role != RolePatient {
		t.Errorf("expected role patient, got %s", claims.Role)
	}
	if claims.PatientID != patientID.String() {
		t.Errorf("expected patient id %s, got %s", patientID, claims.PatientID)
	}
}

func TestIssue_AdminHasNoPatientID(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	token, err := issuer.Issue(uuid.New(), RoleAdmin, uuid.Nil)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if claims.PatientID != "" {
		t.Errorf("expected empty patient id for admin, got %s", claims.PatientID)
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, -time.Minute)
	token, err := issuer.Issue(uuid.New(), RolePatient, uuid.New())
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParse_RejectsWrongKey(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	other := NewTokenIssuer([]byte("another-secret-key-32-bytes-long"), time.Hour)

	token, err := issuer.Issue(uuid.New(), RolePatient, uuid.New())
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected error for token signed with different key")
	}
}

func bearerRequest(token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBearerAuth_PopulatesSession(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	userID := uuid.New()
	patientID := uuid.New()
	token, _ := issuer.Issue(userID, RolePatient, patientID)

	c, _ := bearerRequest(token)
	var got Session
	h := BearerAuth(issuer)(func(c echo.Context) error {
		got = SessionFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != StateAuthenticated {
		t.Errorf("expected authenticated session, got %s", got.State)
	}
	if got.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, got.UserID)
	}
	if got.PatientID != patientID {
		t.Errorf("expected patient %s, got %s", patientID, got.PatientID)
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	c, _ := bearerRequest("")

	h := BearerAuth(issuer)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestBearerAuth_MalformedHeader(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	c := e.NewContext(req, httptest.NewRecorder())

	h := BearerAuth(issuer)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func sessionContext(role string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session := Session{State: StateAuthenticated, UserID: uuid.New(), Role: role}
	req = req.WithContext(WithSession(req.Context(), session))
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireRole_Allows(t *testing.T) {
	h := RequireRole(RolePatient)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(sessionContext(RolePatient)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	h := RequireRole(RolePatient)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(sessionContext(RoleAdmin)); err != nil {
		t.Fatalf("expected admin to pass role check, got %v", err)
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	h := RequireRole(RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := h(sessionContext(RolePatient))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestSessionFromContext_Anonymous(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	s := SessionFromContext(c.Request().Context())
	if s.State != StateAnonymous {
		t.Errorf("expected anonymous session, got %s", s.State)
	}
	if s.UserID != uuid.Nil {
		t.Errorf("expected nil user id, got %s", s.UserID)
	}
}
