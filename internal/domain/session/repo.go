package session

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) sessionsCol() *firestore.CollectionRef {
	return r.fs.Collection("sessions")
}

// MentorQuery is the sessions-as-mentor query, shared with live counters.
func (r *Repo) MentorQuery(uid string) firestore.Query {
	return r.sessionsCol().Where("mentorId", "==", uid)
}

// LearnerQuery is the sessions-as-learner query, shared with live counters.
func (r *Repo) LearnerQuery(uid string) firestore.Query {
	return r.sessionsCol().Where("learnerId", "==", uid)
}

func (r *Repo) Create(ctx context.Context, s LearningSession) (*LearningSession, error) {
	ref := r.sessionsCol().NewDoc()
	s.ID = ref.ID

	if _, err := ref.Set(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

func (r *Repo) Get(ctx context.Context, sessionID string) (*LearningSession, error) {
	doc, err := r.sessionsCol().Doc(sessionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s LearningSession
	if err := doc.DataTo(&s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	s.ID = doc.Ref.ID
	return &s, nil
}

func (r *Repo) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	_, err := r.sessionsCol().Doc(sessionID).Set(ctx, updates, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// ListByMentor lists a mentor's sessions, most recent first.
func (r *Repo) ListByMentor(ctx context.Context, uid string) ([]LearningSession, error) {
	return r.list(ctx, r.MentorQuery(uid))
}

// ListByLearner lists a learner's sessions, most recent first.
func (r *Repo) ListByLearner(ctx context.Context, uid string) ([]LearningSession, error) {
	return r.list(ctx, r.LearnerQuery(uid))
}

func (r *Repo) list(ctx context.Context, q firestore.Query) ([]LearningSession, error) {
	iter := q.OrderBy("date", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var sessions []LearningSession
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sessions: %w", err)
		}

		var s LearningSession
		if err := doc.DataTo(&s); err != nil {
			continue
		}
		s.ID = doc.Ref.ID
		sessions = append(sessions, s)
	}

	if sessions == nil {
		sessions = []LearningSession{}
	}
	return sessions, nil
}
