package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/meditrack/internal/platform/auth"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

type mockProfiles struct {
	byUser map[uuid.UUID]uuid.UUID
}

func newMockProfiles() *mockProfiles {
	return &mockProfiles{byUser: make(map[uuid.UUID]uuid.UUID)}
}

func (m *mockProfiles) CreateDefault(_ context.Context, userID uuid.UUID, _ string) (uuid.UUID, error) {
	id := uuid.New()
	m.byUser[userID] = id
	return id, nil
}

func (m *mockProfiles) IDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.byUser[userID]
	if !ok {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

func newTestService() (*Service, *mockUserRepo, *mockProfiles) {
	repo := newMockUserRepo()
	profiles := newMockProfiles()
	issuer := auth.NewTokenIssuer([]byte("test-secret-at-least-32-bytes-long!"), 30*time.Minute)
	return NewService(repo, profiles, issuer), repo, profiles
}

func TestRegister(t *testing.T) {
	svc, repo, profiles := newTestService()

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Jane@Example.com",
		Password: "hunter2hunter2",
		FullName: "Jane Doe",
		Phone:    "+15550100",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Errorf("unexpected token response: %+v", resp)
	}

	u, err := repo.GetByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Role != auth.RolePatient {
		t.Errorf("role = %q, want patient", u.Role)
	}
	if u.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plaintext")
	}
	if _, ok := profiles.byUser[u.ID]; !ok {
		t.Error("patient profile not created")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []RegisterRequest{
		{Email: "", Password: "hunter2hunter2", FullName: "J"},
		{Email: "not-an-email", Password: "hunter2hunter2", FullName: "J"},
		{Email: "j@x.com", Password: "short", FullName: "J"},
		{Email: "j@x.com", Password: "hunter2hunter2", FullName: ""},
	}
	for i, req := range cases {
		if _, err := svc.Register(ctx, req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	req := RegisterRequest{Email: "j@x.com", Password: "hunter2hunter2", FullName: "J"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "j@x.com", Password: "hunter2hunter2", FullName: "J",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: "J@X.COM", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("empty access token")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "j@x.com", Password: "hunter2hunter2", FullName: "J",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Wrong password and unknown email both surface the same error.
	if _, err := svc.Login(ctx, LoginRequest{Email: "j@x.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: "hunter2hunter2"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}
}

func TestLoginDeactivatedUser(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "j@x.com", Password: "hunter2hunter2", FullName: "J",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	u, _ := repo.GetByEmail(ctx, "j@x.com")
	u.Active = false

	if _, err := svc.Login(ctx, LoginRequest{Email: "j@x.com", Password: "hunter2hunter2"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestCurrentUser(t *testing.T) {
	svc, repo, profiles := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "j@x.com", Password: "hunter2hunter2", FullName: "Jane",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	u, _ := repo.GetByEmail(ctx, "j@x.com")

	me, err := svc.CurrentUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if me.PatientID == nil || *me.PatientID != profiles.byUser[u.ID] {
		t.Errorf("patient_id = %v, want %v", me.PatientID, profiles.byUser[u.ID])
	}
}

func TestCreateAdmin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, err := svc.CreateAdmin(ctx, "admin@x.com", "hunter2hunter2", "Ops")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if u.Role != auth.RoleAdmin {
		t.Errorf("role = %q, want admin", u.Role)
	}

	// Admin login issues a token with no patient profile lookup.
	resp, err := svc.Login(ctx, LoginRequest{Email: "admin@x.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("empty access token")
	}
}
