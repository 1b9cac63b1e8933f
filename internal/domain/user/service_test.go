package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"skillsync/backend/internal/mirror"
)

type stubProfileStore struct {
	profiles map[string]Profile
	getErr   error
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{profiles: map[string]Profile{}}
}

func (s *stubProfileStore) Create(_ context.Context, p Profile) error {
	if _, ok := s.profiles[p.UID]; ok {
		return ErrAlreadyExists
	}
	s.profiles[p.UID] = p
	return nil
}

func (s *stubProfileStore) Get(_ context.Context, uid string) (*Profile, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *stubProfileStore) Update(_ context.Context, uid string, updates map[string]interface{}) error {
	p, ok := s.profiles[uid]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["username"].(string); ok {
		p.Username = v
	}
	if v, ok := updates["role"].(string); ok {
		p.Role = v
	}
	if v, ok := updates["biography"].(string); ok {
		p.Biography = v
	}
	if v, ok := updates["updatedAt"].(time.Time); ok {
		p.UpdatedAt = v
	}
	s.profiles[uid] = p
	return nil
}

func (s *stubProfileStore) Delete(_ context.Context, uid string) error {
	delete(s.profiles, uid)
	return nil
}

type fakeMirror struct {
	users  map[string]mirror.UserRow
	skills map[string]map[string]mirror.SkillRow
	stale  map[string]bool
	putErr error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		users:  map[string]mirror.UserRow{},
		skills: map[string]map[string]mirror.SkillRow{},
		stale:  map[string]bool{},
	}
}

func (m *fakeMirror) PutUser(_ context.Context, row mirror.UserRow) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.users[row.UID] = row
	return nil
}

func (m *fakeMirror) GetUser(_ context.Context, uid string) (*mirror.UserRow, error) {
	row, ok := m.users[uid]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *fakeMirror) DeleteUser(_ context.Context, uid string) error {
	delete(m.users, uid)
	return nil
}

func (m *fakeMirror) PutSkill(_ context.Context, row mirror.SkillRow) error {
	if m.skills[row.UserID] == nil {
		m.skills[row.UserID] = map[string]mirror.SkillRow{}
	}
	m.skills[row.UserID][row.ID] = row
	return nil
}

func (m *fakeMirror) DeleteSkill(_ context.Context, uid, skillID string) error {
	delete(m.skills[uid], skillID)
	return nil
}

func (m *fakeMirror) ListSkills(_ context.Context, uid, skillType string) ([]mirror.SkillRow, error) {
	var rows []mirror.SkillRow
	for _, row := range m.skills[uid] {
		if skillType != "" && row.Type != skillType {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *fakeMirror) DeleteAllForUser(_ context.Context, uid string) error {
	delete(m.users, uid)
	delete(m.skills, uid)
	delete(m.stale, uid)
	return nil
}

func (m *fakeMirror) SetStale(_ context.Context, uid string, stale bool) error {
	m.stale[uid] = stale
	return nil
}

func (m *fakeMirror) Stale(_ context.Context, uid string) (bool, error) {
	return m.stale[uid], nil
}

type stubAccountDeleter struct {
	deleted []string
	err     error
}

func (d *stubAccountDeleter) DeleteUser(_ context.Context, uid string) error {
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, uid)
	return nil
}

func TestRegisterMirrorsProfile(t *testing.T) {
	store := newStubProfileStore()
	m := newFakeMirror()
	svc := NewService(store, m, nil, zap.NewNop())

	p, err := svc.Register(context.Background(), "u1", RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Role:     RoleMentor,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.UID != "u1" || p.Role != RoleMentor {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if _, ok := m.users["u1"]; !ok {
		t.Fatal("expected profile mirrored after successful remote write")
	}
}

func TestRegisterRejectsInvalidRole(t *testing.T) {
	svc := NewService(newStubProfileStore(), newFakeMirror(), nil, zap.NewNop())

	_, err := svc.Register(context.Background(), "u1", RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Role:     "admin",
	})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestRegisterMirrorFailureDoesNotFailCall(t *testing.T) {
	store := newStubProfileStore()
	m := newFakeMirror()
	m.putErr = errors.New("redis down")
	svc := NewService(store, m, nil, zap.NewNop())

	_, err := svc.Register(context.Background(), "u1", RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Role:     RoleLearner,
	})
	if err != nil {
		t.Fatalf("mirror failure must not surface: %v", err)
	}
}

func TestGetFallsBackToMirrorWhenRemoteUnavailable(t *testing.T) {
	store := newStubProfileStore()
	m := newFakeMirror()
	svc := NewService(store, m, nil, zap.NewNop())

	if _, err := svc.Register(context.Background(), "u1", RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Role:     RoleBoth,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	store.getErr = errors.New("unavailable")
	p, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected mirror fallback, got %v", err)
	}
	if !p.Stale {
		t.Fatal("mirror-served profile must be flagged stale")
	}
	if p.Username != "ana" {
		t.Fatalf("unexpected mirror row: %+v", p)
	}
}

func TestGetNotFoundDoesNotFallBack(t *testing.T) {
	svc := NewService(newStubProfileStore(), newFakeMirror(), nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteClearsMirrorAndAccount(t *testing.T) {
	store := newStubProfileStore()
	m := newFakeMirror()
	del := &stubAccountDeleter{}
	svc := NewService(store, m, del, zap.NewNop())

	if _, err := svc.Register(context.Background(), "u1", RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Role:     RoleMentor,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := m.users["u1"]; ok {
		t.Fatal("expected mirror rows removed")
	}
	if len(del.deleted) != 1 || del.deleted[0] != "u1" {
		t.Fatalf("expected auth account deleted, got %v", del.deleted)
	}
}

func TestDeleteAuthFailureIsBestEffort(t *testing.T) {
	store := newStubProfileStore()
	svc := NewService(store, newFakeMirror(), &stubAccountDeleter{err: errors.New("boom")}, zap.NewNop())

	if _, err := svc.Register(context.Background(), "u1", RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Role:     RoleMentor,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("auth delete failure must not surface: %v", err)
	}
}
