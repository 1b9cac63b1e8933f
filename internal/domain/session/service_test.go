package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubSessionStore struct {
	sessions map[string]LearningSession
	nextID   int
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]LearningSession{}}
}

func (s *stubSessionStore) Create(_ context.Context, sess LearningSession) (*LearningSession, error) {
	s.nextID++
	sess.ID = fmt.Sprintf("s-%d", s.nextID)
	s.sessions[sess.ID] = sess
	return &sess, nil
}

func (s *stubSessionStore) Get(_ context.Context, sessionID string) (*LearningSession, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return &sess, nil
}

func (s *stubSessionStore) Update(_ context.Context, sessionID string, updates map[string]interface{}) error {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if v, ok := updates["status"].(string); ok {
		sess.Status = v
	}
	if v, ok := updates["updatedAt"].(time.Time); ok {
		sess.UpdatedAt = v
	}
	s.sessions[sessionID] = sess
	return nil
}

func (s *stubSessionStore) ListByMentor(_ context.Context, uid string) ([]LearningSession, error) {
	var out []LearningSession
	for _, sess := range s.sessions {
		if sess.MentorID == uid {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *stubSessionStore) ListByLearner(_ context.Context, uid string) ([]LearningSession, error) {
	var out []LearningSession
	for _, sess := range s.sessions {
		if sess.LearnerID == uid {
			out = append(out, sess)
		}
	}
	return out, nil
}

func validCreateInput() CreateSessionInput {
	return CreateSessionInput{
		LearnerID:       "learner1",
		LearnerName:     "Bea",
		Date:            time.Now().Add(48 * time.Hour).UTC(),
		DurationMinutes: 60,
		Price:           25,
	}
}

func TestCreateStartsPending(t *testing.T) {
	svc := NewService(newStubSessionStore())

	sess, err := svc.Create(context.Background(), "mentor1", validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Status != StatusPending {
		t.Fatalf("expected status pending, got %q", sess.Status)
	}
	if sess.MentorID != "mentor1" || sess.LearnerID != "learner1" {
		t.Fatalf("unexpected participants: %+v", sess)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newStubSessionStore())

	bad := validCreateInput()
	bad.LearnerID = ""
	if _, err := svc.Create(context.Background(), "mentor1", bad); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("missing learner: expected ErrBadRequest, got %v", err)
	}

	bad = validCreateInput()
	bad.LearnerID = "mentor1"
	if _, err := svc.Create(context.Background(), "mentor1", bad); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("self session: expected ErrBadRequest, got %v", err)
	}

	bad = validCreateInput()
	bad.DurationMinutes = 0
	if _, err := svc.Create(context.Background(), "mentor1", bad); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("zero duration: expected ErrBadRequest, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc := NewService(newStubSessionStore())

	sess, err := svc.Create(context.Background(), "mentor1", validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// pending -> completed is not allowed
	if _, err := svc.UpdateStatus(context.Background(), "mentor1", sess.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// pending -> confirmed -> completed
	if _, err := svc.UpdateStatus(context.Background(), "learner1", sess.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, err := svc.UpdateStatus(context.Background(), "mentor1", sess.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}

	// completed is terminal
	if _, err := svc.UpdateStatus(context.Background(), "mentor1", sess.ID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from completed, got %v", err)
	}
}

func TestUpdateStatusRejectsOutsiders(t *testing.T) {
	svc := NewService(newStubSessionStore())

	sess, err := svc.Create(context.Background(), "mentor1", validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "outsider", sess.ID, StatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGetRestrictedToParticipants(t *testing.T) {
	svc := NewService(newStubSessionStore())

	sess, err := svc.Create(context.Background(), "mentor1", validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Get(context.Background(), "learner1", sess.ID); err != nil {
		t.Fatalf("learner must see their session: %v", err)
	}
	if _, err := svc.Get(context.Background(), "outsider", sess.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
