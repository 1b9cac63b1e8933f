package card

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skillsync/backend/internal/domain/user"
	"skillsync/backend/internal/utils"
)

// cardStore is the slice of Repo the service needs.
type cardStore interface {
	Create(ctx context.Context, c TeachingCard) (*TeachingCard, error)
	Get(ctx context.Context, cardID string) (*TeachingCard, error)
	Update(ctx context.Context, cardID string, updates map[string]interface{}) error
	Delete(ctx context.Context, cardID string) error
	List(ctx context.Context, in ListCardsInput) ([]TeachingCard, error)
	Enroll(ctx context.Context, cardID, learnerID string) (*TeachingCard, error)
	Unenroll(ctx context.Context, cardID, learnerID string) (*TeachingCard, error)
	IsEnrolled(ctx context.Context, cardID, learnerID string) (bool, error)
}

// imageStore is satisfied by *ImageStore.
type imageStore interface {
	Upload(ctx context.Context, ownerUID string, img Image) (path, url string, err error)
	Delete(ctx context.Context, path string) error
}

// profileGetter resolves the mentor profile snapshotted onto new cards.
type profileGetter interface {
	Get(ctx context.Context, uid string) (*user.Profile, error)
}

type Service struct {
	store    cardStore
	images   imageStore
	profiles profileGetter
	log      *zap.Logger
}

func NewService(store cardStore, images imageStore, profiles profileGetter, log *zap.Logger) *Service {
	return &Service{store: store, images: images, profiles: profiles, log: log}
}

// Create makes a new active card for the authenticated mentor. The image, when
// present, is uploaded first; an upload failure aborts the creation. A crash
// between upload and document write can orphan the stored object - accepted.
func (s *Service) Create(ctx context.Context, uid string, in CreateCardInput, img *Image) (*TeachingCard, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	in.Trim()
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: profile required to create a card", ErrForbidden)
	}

	var imagePath, imageURL string
	if img != nil {
		imagePath, imageURL, err = s.images.Upload(ctx, uid, *img)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	c := TeachingCard{
		MentorID:        uid,
		MentorName:      profile.Username,
		MentorPhotoURL:  profile.PhotoURL,
		Title:           in.Title,
		Description:     in.Description,
		Category:        in.Category,
		CategorySlug:    utils.Slugify(in.Category),
		ExperienceLevel: in.ExperienceLevel,
		Availability:    in.Availability,
		LearnerCount:    0,
		IsActive:        true,
		ImageURL:        imageURL,
		ImagePath:       imagePath,
		SearchTokens:    utils.SearchTokens(in.Title, in.Category),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return s.store.Create(ctx, c)
}

// Get fetches a single card and flags whether the viewer is enrolled on it.
// The enrollment lookup is best effort: a failed read leaves the flag false
// rather than failing the card fetch.
func (s *Service) Get(ctx context.Context, viewerUID, cardID string) (*TeachingCard, error) {
	if cardID == "" {
		return nil, fmt.Errorf("%w: cardId is required", ErrBadRequest)
	}
	c, err := s.store.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if viewerUID != "" && viewerUID != c.MentorID {
		enrolled, err := s.store.IsEnrolled(ctx, cardID, viewerUID)
		if err != nil {
			s.log.Warn("failed to read enrollment", zap.String("cardId", cardID), zap.String("uid", viewerUID), zap.Error(err))
		}
		c.Enrolled = enrolled
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, in ListCardsInput) ([]TeachingCard, error) {
	in.Query = utils.NormalizeToken(in.Query)
	in.Category = utils.Slugify(in.Category)
	return s.store.List(ctx, in)
}

// Update applies a partial update. A replacement image deletes the prior
// stored object before the new one is uploaded.
func (s *Service) Update(ctx context.Context, uid, cardID string, in UpdateCardInput, img *Image) (*TeachingCard, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	if cardID == "" {
		return nil, fmt.Errorf("%w: cardId is required", ErrBadRequest)
	}
	in.Trim()

	existing, err := s.store.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if existing.MentorID != uid {
		return nil, fmt.Errorf("%w: only the card owner can update it", ErrForbidden)
	}

	updates := map[string]interface{}{
		"updatedAt": time.Now().UTC(),
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrBadRequest)
		}
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		updates["category"] = *in.Category
		updates["categorySlug"] = utils.Slugify(*in.Category)
	}
	if in.ExperienceLevel != nil {
		if !IsValidExperienceLevel(*in.ExperienceLevel) {
			return nil, fmt.Errorf("%w: experienceLevel must be one of: beginner, novice, intermediate, advanced, expert", ErrBadRequest)
		}
		updates["experienceLevel"] = *in.ExperienceLevel
	}
	if in.Availability != nil {
		updates["availability"] = *in.Availability
	}
	if in.IsActive != nil {
		updates["isActive"] = *in.IsActive
	}
	if in.Title != nil || in.Category != nil {
		title := existing.Title
		if in.Title != nil {
			title = *in.Title
		}
		category := existing.Category
		if in.Category != nil {
			category = *in.Category
		}
		updates["searchTokens"] = utils.SearchTokens(title, category)
	}

	if img != nil {
		if existing.ImagePath != "" {
			if err := s.images.Delete(ctx, existing.ImagePath); err != nil {
				s.log.Warn("failed to delete replaced card image", zap.String("cardId", cardID), zap.Error(err))
			}
		}
		path, url, err := s.images.Upload(ctx, uid, *img)
		if err != nil {
			return nil, err
		}
		updates["imagePath"] = path
		updates["imageUrl"] = url
	}

	if err := s.store.Update(ctx, cardID, updates); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, cardID)
}

// Deactivate soft-removes the card from browsing without touching its
// enrollments or stored image.
func (s *Service) Deactivate(ctx context.Context, uid, cardID string) error {
	if uid == "" {
		return fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	existing, err := s.store.Get(ctx, cardID)
	if err != nil {
		return err
	}
	if existing.MentorID != uid {
		return fmt.Errorf("%w: only the card owner can deactivate it", ErrForbidden)
	}
	return s.store.Update(ctx, cardID, map[string]interface{}{
		"isActive":  false,
		"updatedAt": time.Now().UTC(),
	})
}

// Delete removes the card document together with its stored image. The image
// delete is best effort and never blocks the document delete. Cards without an
// image make no storage call at all.
func (s *Service) Delete(ctx context.Context, uid, cardID string) error {
	if uid == "" {
		return fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	existing, err := s.store.Get(ctx, cardID)
	if err != nil {
		return err
	}
	if existing.MentorID != uid {
		return fmt.Errorf("%w: only the card owner can delete it", ErrForbidden)
	}

	if existing.ImagePath != "" {
		if err := s.images.Delete(ctx, existing.ImagePath); err != nil {
			s.log.Warn("failed to delete card image", zap.String("cardId", cardID), zap.Error(err))
		}
	}
	return s.store.Delete(ctx, cardID)
}

// Enroll subscribes the learner to a card. Preconditions and the learner
// counter are enforced inside the store transaction.
func (s *Service) Enroll(ctx context.Context, uid, cardID string) (*TeachingCard, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	if cardID == "" {
		return nil, fmt.Errorf("%w: cardId is required", ErrBadRequest)
	}
	return s.store.Enroll(ctx, cardID, uid)
}

func (s *Service) Unenroll(ctx context.Context, uid, cardID string) (*TeachingCard, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	if cardID == "" {
		return nil, fmt.Errorf("%w: cardId is required", ErrBadRequest)
	}
	return s.store.Unenroll(ctx, cardID, uid)
}

func validateCreateInput(in CreateCardInput) error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrBadRequest)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrBadRequest)
	}
	if in.Category == "" {
		return fmt.Errorf("%w: category is required", ErrBadRequest)
	}
	if !IsValidExperienceLevel(in.ExperienceLevel) {
		return fmt.Errorf("%w: experienceLevel must be one of: beginner, novice, intermediate, advanced, expert", ErrBadRequest)
	}
	return nil
}
