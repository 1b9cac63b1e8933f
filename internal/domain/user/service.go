package user

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skillsync/backend/internal/mirror"
)

// profileStore is the slice of Repo the service needs.
type profileStore interface {
	Create(ctx context.Context, p Profile) error
	Get(ctx context.Context, uid string) (*Profile, error)
	Update(ctx context.Context, uid string, updates map[string]interface{}) error
	Delete(ctx context.Context, uid string) error
}

// accountDeleter removes the identity behind a profile. Satisfied by
// *auth.Client.
type accountDeleter interface {
	DeleteUser(ctx context.Context, uid string) error
}

type Service struct {
	store  profileStore
	mirror mirror.Store
	auth   accountDeleter
	log    *zap.Logger
}

func NewService(store profileStore, m mirror.Store, auth accountDeleter, log *zap.Logger) *Service {
	return &Service{store: store, mirror: m, auth: auth, log: log}
}

// Register creates the profile document for an authenticated uid and mirrors
// it locally on success.
func (s *Service) Register(ctx context.Context, uid string, in RegisterInput) (*Profile, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	in.Trim()
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrBadRequest)
	}
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrBadRequest)
	}
	if !IsValidRole(in.Role) {
		return nil, fmt.Errorf("%w: role must be one of: mentor, learner, both", ErrBadRequest)
	}

	now := time.Now().UTC()
	p := Profile{
		UID:          uid,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		Role:         in.Role,
		Biography:    in.Biography,
		Availability: in.Availability,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.mirrorProfile(ctx, &p)
	return &p, nil
}

// Get reads the profile from the remote store and refreshes the mirror. When
// the remote read fails for reasons other than absence, it falls back to the
// mirror row and marks the result stale.
func (s *Service) Get(ctx context.Context, uid string) (*Profile, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}

	p, err := s.store.Get(ctx, uid)
	if err == nil {
		s.mirrorProfile(ctx, p)
		return p, nil
	}
	if IsErrNotFound(err) {
		return nil, err
	}

	// Offline read path.
	row, mErr := s.mirror.GetUser(ctx, uid)
	if mErr != nil || row == nil {
		return nil, err
	}
	s.log.Warn("serving profile from local mirror", zap.String("uid", uid), zap.Error(err))
	return profileFromRow(row), nil
}

// Update applies a partial update and refreshes the mirror on success.
func (s *Service) Update(ctx context.Context, uid string, in UpdateInput) (*Profile, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	in.Trim()

	updates := map[string]interface{}{
		"updatedAt": time.Now().UTC(),
	}
	if in.FirstName != nil {
		updates["firstName"] = *in.FirstName
	}
	if in.LastName != nil {
		updates["lastName"] = *in.LastName
	}
	if in.Username != nil {
		if *in.Username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", ErrBadRequest)
		}
		updates["username"] = *in.Username
	}
	if in.Role != nil {
		if !IsValidRole(*in.Role) {
			return nil, fmt.Errorf("%w: role must be one of: mentor, learner, both", ErrBadRequest)
		}
		updates["role"] = *in.Role
	}
	if in.PhotoURL != nil {
		updates["photoUrl"] = *in.PhotoURL
	}
	if in.Biography != nil {
		updates["biography"] = *in.Biography
	}
	if in.Availability != nil {
		updates["availability"] = *in.Availability
	}
	if in.FCMToken != nil {
		updates["fcmToken"] = *in.FCMToken
	}

	if err := s.store.Update(ctx, uid, updates); err != nil {
		return nil, err
	}

	p, err := s.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.mirrorProfile(ctx, p)
	return p, nil
}

// Delete removes the profile document, every mirror row for the user, and the
// Firebase Auth account. The account delete is best effort.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if uid == "" {
		return fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}

	if err := s.store.Delete(ctx, uid); err != nil {
		return err
	}
	if err := s.mirror.DeleteAllForUser(ctx, uid); err != nil {
		s.log.Warn("failed to clear mirror rows", zap.String("uid", uid), zap.Error(err))
	}
	if s.auth != nil {
		if err := s.auth.DeleteUser(ctx, uid); err != nil {
			s.log.Warn("failed to delete auth account", zap.String("uid", uid), zap.Error(err))
		}
	}
	return nil
}

// mirrorProfile refreshes the local mirror row. Failures are logged, never
// surfaced: the mirror is a best-effort cache.
func (s *Service) mirrorProfile(ctx context.Context, p *Profile) {
	row := mirror.UserRow{
		UID:          p.UID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Username:     p.Username,
		Email:        p.Email,
		Role:         p.Role,
		PhotoURL:     p.PhotoURL,
		Biography:    p.Biography,
		Availability: p.Availability,
		UpdatedAt:    p.UpdatedAt,
	}
	if err := s.mirror.PutUser(ctx, row); err != nil {
		s.log.Warn("failed to mirror profile", zap.String("uid", p.UID), zap.Error(err))
	}
}

func profileFromRow(row *mirror.UserRow) *Profile {
	return &Profile{
		UID:          row.UID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Username:     row.Username,
		Email:        row.Email,
		Role:         row.Role,
		PhotoURL:     row.PhotoURL,
		Biography:    row.Biography,
		Availability: row.Availability,
		UpdatedAt:    row.UpdatedAt,
		Stale:        true,
	}
}
