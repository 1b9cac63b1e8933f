package session

import (
	"context"
	"fmt"
	"time"
)

// sessionStore is the slice of Repo the service needs.
type sessionStore interface {
	Create(ctx context.Context, s LearningSession) (*LearningSession, error)
	Get(ctx context.Context, sessionID string) (*LearningSession, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	ListByMentor(ctx context.Context, uid string) ([]LearningSession, error)
	ListByLearner(ctx context.Context, uid string) ([]LearningSession, error)
}

type Service struct {
	store sessionStore
}

func NewService(store sessionStore) *Service {
	return &Service{store: store}
}

// Create schedules a session for the authenticated mentor.
func (s *Service) Create(ctx context.Context, mentorUID string, in CreateSessionInput) (*LearningSession, error) {
	if mentorUID == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	in.Trim()
	if in.LearnerID == "" {
		return nil, fmt.Errorf("%w: learnerId is required", ErrBadRequest)
	}
	if in.LearnerID == mentorUID {
		return nil, fmt.Errorf("%w: mentor cannot book a session with themselves", ErrBadRequest)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrBadRequest)
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: durationMinutes must be positive", ErrBadRequest)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrBadRequest)
	}

	now := time.Now().UTC()
	return s.store.Create(ctx, LearningSession{
		MentorID:        mentorUID,
		LearnerID:       in.LearnerID,
		LearnerName:     in.LearnerName,
		Date:            in.Date,
		DurationMinutes: in.DurationMinutes,
		Status:          StatusPending,
		Price:           in.Price,
		MeetingLink:     in.MeetingLink,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (s *Service) Get(ctx context.Context, uid, sessionID string) (*LearningSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrBadRequest)
	}
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.MentorID != uid && sess.LearnerID != uid {
		return nil, fmt.Errorf("%w: only session participants can view it", ErrForbidden)
	}
	return sess, nil
}

// UpdateStatus moves the session through its lifecycle. Only participants can
// change the status and only along the allowed transitions.
func (s *Service) UpdateStatus(ctx context.Context, uid, sessionID, newStatus string) (*LearningSession, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	if !IsValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: status must be one of: pending, confirmed, completed, cancelled", ErrBadRequest)
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.MentorID != uid && sess.LearnerID != uid {
		return nil, fmt.Errorf("%w: only session participants can update it", ErrForbidden)
	}
	if !canTransition(sess.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Status, newStatus)
	}

	if err := s.store.Update(ctx, sessionID, map[string]interface{}{
		"status":    newStatus,
		"updatedAt": time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, sessionID)
}

func (s *Service) ListByMentor(ctx context.Context, uid string) ([]LearningSession, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	return s.store.ListByMentor(ctx, uid)
}

func (s *Service) ListByLearner(ctx context.Context, uid string) ([]LearningSession, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	return s.store.ListByLearner(ctx, uid)
}
