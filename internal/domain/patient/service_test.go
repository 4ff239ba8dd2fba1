package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	profiles map[uuid.UUID]*Profile
}

func newMockRepo() *mockRepo {
	return &mockRepo{profiles: make(map[uuid.UUID]*Profile)}
}

func (m *mockRepo) Create(_ context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Profile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, p *Profile) error {
	if _, ok := m.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Profile, int, error) {
	var out []*Profile
	for _, p := range m.profiles {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockRater struct {
	rates map[uuid.UUID]float64
	risks map[uuid.UUID]string
	fail  bool
}

func (m *mockRater) OverallAdherence(_ context.Context, id uuid.UUID) (float64, string, error) {
	if m.fail {
		return 0, "", errors.New("rating failed")
	}
	return m.rates[id], m.risks[id], nil
}

func TestCreateDefaultAndIDForUser(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockRater{})
	ctx := context.Background()

	userID := uuid.New()
	pid, err := svc.CreateDefault(ctx, userID, "Jane")
	if err != nil {
		t.Fatalf("CreateDefault: %v", err)
	}

	got, err := svc.IDForUser(ctx, userID)
	if err != nil {
		t.Fatalf("IDForUser: %v", err)
	}
	if got != pid {
		t.Errorf("profile id = %v, want %v", got, pid)
	}

	p, _ := svc.Get(ctx, pid)
	if p.Status != StatusStable {
		t.Errorf("default status = %q, want stable", p.Status)
	}
}

func TestUpdateOwn(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockRater{})
	ctx := context.Background()

	userID := uuid.New()
	pid, _ := svc.CreateDefault(ctx, userID, "Jane")

	gender := "female"
	height := 170.0
	p, err := svc.UpdateOwn(ctx, userID, ProfileUpdate{Gender: &gender, HeightCM: &height})
	if err != nil {
		t.Fatalf("UpdateOwn: %v", err)
	}
	if p.Gender != "female" || p.HeightCM == nil || *p.HeightCM != 170.0 {
		t.Errorf("update not applied: %+v", p)
	}

	// Fields not in the payload are untouched.
	stored, _ := svc.Get(ctx, pid)
	if stored.Status != StatusStable {
		t.Errorf("status changed by own-profile update: %q", stored.Status)
	}
}

func TestAdminUpdate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockRater{})
	ctx := context.Background()

	pid, _ := svc.CreateDefault(ctx, uuid.New(), "Jane")

	status := StatusCritical
	adminID := uuid.New()
	p, err := svc.AdminUpdate(ctx, pid, AdminUpdate{Status: &status, AssignedAdminID: &adminID})
	if err != nil {
		t.Fatalf("AdminUpdate: %v", err)
	}
	if p.Status != StatusCritical {
		t.Errorf("status = %q, want critical", p.Status)
	}
	if p.AssignedAdminID == nil || *p.AssignedAdminID != adminID {
		t.Errorf("assigned admin not set: %+v", p.AssignedAdminID)
	}
}

func TestAdminUpdateInvalidStatus(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockRater{})
	ctx := context.Background()

	pid, _ := svc.CreateDefault(ctx, uuid.New(), "Jane")

	bad := "discharged"
	if _, err := svc.AdminUpdate(ctx, pid, AdminUpdate{Status: &bad}); err == nil {
		t.Error("expected invalid status error")
	}
}

func TestAdminUpdateNotFound(t *testing.T) {
	svc := NewService(newMockRepo(), &mockRater{})

	status := StatusStable
	if _, err := svc.AdminUpdate(context.Background(), uuid.New(), AdminUpdate{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRoster(t *testing.T) {
	repo := newMockRepo()
	rater := &mockRater{
		rates: make(map[uuid.UUID]float64),
		risks: make(map[uuid.UUID]string),
	}
	svc := NewService(repo, rater)
	ctx := context.Background()

	p1, _ := svc.CreateDefault(ctx, uuid.New(), "A")
	p2, _ := svc.CreateDefault(ctx, uuid.New(), "B")
	rater.rates[p1] = 92.5
	rater.risks[p1] = "low"
	rater.rates[p2] = 40.0
	rater.risks[p2] = "high"

	entries, total, err := svc.Roster(ctx, 20, 0)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("total = %d, entries = %d", total, len(entries))
	}
	for _, e := range entries {
		if e.RiskLevel != rater.risks[e.ID] {
			t.Errorf("entry %v risk = %q, want %q", e.ID, e.RiskLevel, rater.risks[e.ID])
		}
	}
}

func TestRosterDegradesOnRatingFailure(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockRater{fail: true})
	ctx := context.Background()

	_, _ = svc.CreateDefault(ctx, uuid.New(), "A")

	entries, _, err := svc.Roster(ctx, 20, 0)
	if err != nil {
		t.Fatalf("Roster should not fail when rating fails: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].AdherenceRate != 0 || entries[0].RiskLevel != "high" {
		t.Errorf("degraded entry = %+v", entries[0])
	}
}
