package user

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) usersCol() *firestore.CollectionRef {
	return r.fs.Collection("users")
}

// Create writes a new profile document. Fails if one already exists for uid.
func (r *Repo) Create(ctx context.Context, p Profile) error {
	_, err := r.usersCol().Doc(p.UID).Create(ctx, p)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: profile for %s", ErrAlreadyExists, p.UID)
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.usersCol().Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: profile %s", ErrNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.UID = doc.Ref.ID
	return &p, nil
}

// FCMToken returns the user's registered device token. Empty means the user
// has no device to push to; callers treat that as a no-op, not an error.
func (r *Repo) FCMToken(ctx context.Context, uid string) (string, error) {
	p, err := r.Get(ctx, uid)
	if err != nil {
		if IsErrNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return p.FCMToken, nil
}

func (r *Repo) Update(ctx context.Context, uid string, updates map[string]interface{}) error {
	_, err := r.usersCol().Doc(uid).Set(ctx, updates, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, uid string) error {
	_, err := r.usersCol().Doc(uid).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
