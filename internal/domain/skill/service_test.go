package skill

import (
	"context"
	"errors"
	"sort"
	"testing"

	"go.uber.org/zap"

	"skillsync/backend/internal/mirror"
)

type stubSkillStore struct {
	skills  map[string]Skill
	nextID  int
	listErr error
	addErr  error
}

func newStubSkillStore() *stubSkillStore {
	return &stubSkillStore{skills: map[string]Skill{}}
}

func (s *stubSkillStore) List(_ context.Context, uid, skillType string) ([]Skill, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Skill
	for _, sk := range s.skills {
		if sk.UserID != uid {
			continue
		}
		if skillType != "" && sk.Type != skillType {
			continue
		}
		out = append(out, sk)
	}
	return out, nil
}

func (s *stubSkillStore) Add(_ context.Context, uid string, sk Skill) (*Skill, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.nextID++
	sk.ID = string(rune('a' + s.nextID))
	sk.UserID = uid
	s.skills[sk.ID] = sk
	return &sk, nil
}

func (s *stubSkillStore) Delete(_ context.Context, uid, skillID string) error {
	sk, ok := s.skills[skillID]
	if !ok || sk.UserID != uid {
		return ErrNotFound
	}
	delete(s.skills, skillID)
	return nil
}

type fakeMirror struct {
	skills    map[string]map[string]mirror.SkillRow
	stale     map[string]bool
	putErr    error
	deleteErr error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		skills: map[string]map[string]mirror.SkillRow{},
		stale:  map[string]bool{},
	}
}

func (m *fakeMirror) PutUser(_ context.Context, _ mirror.UserRow) error { return nil }
func (m *fakeMirror) GetUser(_ context.Context, _ string) (*mirror.UserRow, error) {
	return nil, nil
}
func (m *fakeMirror) DeleteUser(_ context.Context, _ string) error { return nil }

func (m *fakeMirror) PutSkill(_ context.Context, row mirror.SkillRow) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.skills[row.UserID] == nil {
		m.skills[row.UserID] = map[string]mirror.SkillRow{}
	}
	m.skills[row.UserID][row.ID] = row
	return nil
}

func (m *fakeMirror) DeleteSkill(_ context.Context, uid, skillID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
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

func (m *fakeMirror) ids(uid string) []string {
	var out []string
	for id := range m.skills[uid] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func TestDiffSkills(t *testing.T) {
	remote := []Skill{
		{ID: "a", UserID: "u1"},
		{ID: "b", UserID: "u1"},
		{ID: "c", UserID: "u1"},
	}
	local := []mirror.SkillRow{
		{ID: "b", UserID: "u1"},
		{ID: "d", UserID: "u1"},
	}

	toInsert, toDelete := diffSkills(remote, local)

	insertIDs := make([]string, 0, len(toInsert))
	for _, sk := range toInsert {
		insertIDs = append(insertIDs, sk.ID)
	}
	sort.Strings(insertIDs)
	sort.Strings(toDelete)

	if len(insertIDs) != 2 || insertIDs[0] != "a" || insertIDs[1] != "c" {
		t.Fatalf("expected inserts [a c], got %v", insertIDs)
	}
	if len(toDelete) != 1 || toDelete[0] != "d" {
		t.Fatalf("expected deletes [d], got %v", toDelete)
	}
}

func TestDiffSkillsEmptySets(t *testing.T) {
	toInsert, toDelete := diffSkills(nil, nil)
	if len(toInsert) != 0 || len(toDelete) != 0 {
		t.Fatalf("expected empty plan, got %v / %v", toInsert, toDelete)
	}
}

func TestAddMirrorsOnlyOnRemoteSuccess(t *testing.T) {
	store := newStubSkillStore()
	m := newFakeMirror()
	svc := NewService(store, m, zap.NewNop())

	sk, err := svc.Add(context.Background(), "u1", AddSkillInput{Name: "Go", Type: TypeTeach, Level: 4})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, ok := m.skills["u1"][sk.ID]; !ok {
		t.Fatal("expected skill mirrored after remote success")
	}

	store.addErr = errors.New("unavailable")
	if _, err := svc.Add(context.Background(), "u1", AddSkillInput{Name: "Rust", Type: TypeLearn, Level: 2}); err == nil {
		t.Fatal("expected remote failure to surface")
	}
	if len(m.skills["u1"]) != 1 {
		t.Fatal("remote failure must not mirror the skill")
	}
}

func TestAddValidatesInput(t *testing.T) {
	svc := NewService(newStubSkillStore(), newFakeMirror(), zap.NewNop())

	cases := []AddSkillInput{
		{Name: "", Type: TypeTeach, Level: 3},
		{Name: "Go", Type: "OTHER", Level: 3},
		{Name: "Go", Type: TypeTeach, Level: 0},
		{Name: "Go", Type: TypeTeach, Level: 6},
	}
	for _, in := range cases {
		if _, err := svc.Add(context.Background(), "u1", in); !errors.Is(err, ErrBadRequest) {
			t.Fatalf("input %+v: expected ErrBadRequest, got %v", in, err)
		}
	}
}

func TestSyncReconcilesMirrorWithRemote(t *testing.T) {
	store := newStubSkillStore()
	m := newFakeMirror()
	svc := NewService(store, m, zap.NewNop())

	// Adds go through the service so the mirror follows the remote store.
	for _, name := range []string{"Go", "SQL", "Piano"} {
		if _, err := svc.Add(context.Background(), "u1", AddSkillInput{Name: name, Type: TypeTeach, Level: 3}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	// A remote-side delete plus a stray mirror row make the two sets diverge.
	var anyID string
	for id := range store.skills {
		anyID = id
		break
	}
	delete(store.skills, anyID)
	if err := m.PutSkill(context.Background(), mirror.SkillRow{ID: "stray", UserID: "u1", Name: "Old", Type: TypeLearn, Level: 1}); err != nil {
		t.Fatalf("PutSkill: %v", err)
	}

	svc.Sync(context.Background(), "u1")

	remote, _ := store.List(context.Background(), "u1", "")
	remoteIDs := make([]string, 0, len(remote))
	for _, sk := range remote {
		remoteIDs = append(remoteIDs, sk.ID)
	}
	sort.Strings(remoteIDs)

	if got := m.ids("u1"); len(got) != len(remoteIDs) {
		t.Fatalf("mirror ids %v != remote ids %v", got, remoteIDs)
	} else {
		for i := range got {
			if got[i] != remoteIDs[i] {
				t.Fatalf("mirror ids %v != remote ids %v", got, remoteIDs)
			}
		}
	}
	if m.stale["u1"] {
		t.Fatal("successful sync must clear the staleness flag")
	}
}

func TestSyncFailureIsSwallowedAndFlagsStale(t *testing.T) {
	store := newStubSkillStore()
	store.listErr = errors.New("unavailable")
	m := newFakeMirror()
	svc := NewService(store, m, zap.NewNop())

	svc.Sync(context.Background(), "u1") // must not panic or surface the error

	if !m.stale["u1"] {
		t.Fatal("failed sync must flag the mirror stale")
	}
	if !svc.Stale(context.Background(), "u1") {
		t.Fatal("Stale must report the recorded flag")
	}
}
