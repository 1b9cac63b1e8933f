package card

import (
	"context"
	"fmt"
	"time"

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

func (r *Repo) cardsCol() *firestore.CollectionRef {
	return r.fs.Collection("teaching_cards")
}

func (r *Repo) enrollmentRef(cardID, learnerID string) *firestore.DocumentRef {
	return r.cardsCol().Doc(cardID).Collection("enrollments").Doc(learnerID)
}

// Create writes a new card document with a freshly generated id.
func (r *Repo) Create(ctx context.Context, c TeachingCard) (*TeachingCard, error) {
	ref := r.cardsCol().NewDoc()
	c.ID = ref.ID

	if _, err := ref.Set(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create teaching card: %w", err)
	}
	return &c, nil
}

func (r *Repo) Get(ctx context.Context, cardID string) (*TeachingCard, error) {
	doc, err := r.cardsCol().Doc(cardID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: teaching card %s", ErrNotFound, cardID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teaching card: %w", err)
	}

	var c TeachingCard
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("failed to decode teaching card: %w", err)
	}
	c.ID = doc.Ref.ID
	return &c, nil
}

func (r *Repo) Update(ctx context.Context, cardID string, updates map[string]interface{}) error {
	_, err := r.cardsCol().Doc(cardID).Set(ctx, updates, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update teaching card: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, cardID string) error {
	_, err := r.cardsCol().Doc(cardID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete teaching card: %w", err)
	}
	return nil
}

// List lists cards, newest first.
func (r *Repo) List(ctx context.Context, in ListCardsInput) ([]TeachingCard, error) {
	q := r.cardsCol().Query
	if in.ActiveOnly {
		q = q.Where("isActive", "==", true)
	}
	if in.Category != "" {
		q = q.Where("categorySlug", "==", in.Category)
	}
	if in.MentorID != "" {
		q = q.Where("mentorId", "==", in.MentorID)
	}
	if in.Query != "" {
		q = q.Where("searchTokens", "array-contains", in.Query)
	}

	limit := in.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q = q.OrderBy("createdAt", firestore.Desc).Limit(int(limit))

	iter := q.Documents(ctx)
	defer iter.Stop()

	var cards []TeachingCard
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate teaching cards: %w", err)
		}

		var c TeachingCard
		if err := doc.DataTo(&c); err != nil {
			continue
		}
		c.ID = doc.Ref.ID
		cards = append(cards, c)
	}

	if cards == nil {
		cards = []TeachingCard{}
	}
	return cards, nil
}

// Enroll creates the enrollment record and increments learnerCount in a single
// transaction. The counter and the record change together or not at all.
func (r *Repo) Enroll(ctx context.Context, cardID, learnerID string) (*TeachingCard, error) {
	var out TeachingCard

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cardRef := r.cardsCol().Doc(cardID)
		doc, err := tx.Get(cardRef)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: teaching card %s", ErrNotFound, cardID)
		}
		if err != nil {
			return fmt.Errorf("failed to read teaching card: %w", err)
		}

		var c TeachingCard
		if err := doc.DataTo(&c); err != nil {
			return fmt.Errorf("failed to decode teaching card: %w", err)
		}
		c.ID = doc.Ref.ID

		enrRef := r.enrollmentRef(cardID, learnerID)
		_, err = tx.Get(enrRef)
		enrolled := err == nil
		if err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to read enrollment: %w", err)
		}

		if err := applyEnroll(&c, enrolled); err != nil {
			return err
		}

		if err := tx.Set(enrRef, Enrollment{LearnerID: learnerID, EnrolledAt: time.Now().UTC()}); err != nil {
			return fmt.Errorf("failed to write enrollment: %w", err)
		}
		if err := tx.Update(cardRef, []firestore.Update{
			{Path: "learnerCount", Value: c.LearnerCount},
		}); err != nil {
			return fmt.Errorf("failed to update learner count: %w", err)
		}

		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Unenroll deletes the enrollment record and decrements learnerCount in a
// single transaction.
func (r *Repo) Unenroll(ctx context.Context, cardID, learnerID string) (*TeachingCard, error) {
	var out TeachingCard

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cardRef := r.cardsCol().Doc(cardID)
		doc, err := tx.Get(cardRef)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: teaching card %s", ErrNotFound, cardID)
		}
		if err != nil {
			return fmt.Errorf("failed to read teaching card: %w", err)
		}

		var c TeachingCard
		if err := doc.DataTo(&c); err != nil {
			return fmt.Errorf("failed to decode teaching card: %w", err)
		}
		c.ID = doc.Ref.ID

		enrRef := r.enrollmentRef(cardID, learnerID)
		_, err = tx.Get(enrRef)
		enrolled := err == nil
		if err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to read enrollment: %w", err)
		}

		if err := applyUnenroll(&c, enrolled); err != nil {
			return err
		}

		if err := tx.Delete(enrRef); err != nil {
			return fmt.Errorf("failed to delete enrollment: %w", err)
		}
		if err := tx.Update(cardRef, []firestore.Update{
			{Path: "learnerCount", Value: c.LearnerCount},
		}); err != nil {
			return fmt.Errorf("failed to update learner count: %w", err)
		}

		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// IsEnrolled reports whether learnerID has an enrollment record on cardID.
func (r *Repo) IsEnrolled(ctx context.Context, cardID, learnerID string) (bool, error) {
	_, err := r.enrollmentRef(cardID, learnerID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read enrollment: %w", err)
	}
	return true, nil
}
