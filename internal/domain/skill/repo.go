package skill

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

func (r *Repo) skillsCol(uid string) *firestore.CollectionRef {
	return r.fs.Collection("users").Doc(uid).Collection("skills")
}

// SkillsQuery exposes the skills-owned-by-user query for live count watchers.
func (r *Repo) SkillsQuery(uid string) firestore.Query {
	return r.skillsCol(uid).Query
}

// List fetches the user's skills, optionally filtered by type.
func (r *Repo) List(ctx context.Context, uid, skillType string) ([]Skill, error) {
	q := r.skillsCol(uid).Query
	if skillType != "" {
		q = q.Where("type", "==", skillType)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var skills []Skill
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate skills: %w", err)
		}

		var sk Skill
		if err := doc.DataTo(&sk); err != nil {
			continue
		}
		sk.ID = doc.Ref.ID
		sk.UserID = uid
		skills = append(skills, sk)
	}

	if skills == nil {
		skills = []Skill{}
	}
	return skills, nil
}

// Add writes a new skill document with a freshly generated id.
func (r *Repo) Add(ctx context.Context, uid string, sk Skill) (*Skill, error) {
	ref := r.skillsCol(uid).NewDoc()
	sk.ID = ref.ID
	sk.UserID = uid

	if _, err := ref.Set(ctx, sk); err != nil {
		return nil, fmt.Errorf("failed to add skill: %w", err)
	}
	return &sk, nil
}

func (r *Repo) Delete(ctx context.Context, uid, skillID string) error {
	_, err := r.skillsCol(uid).Doc(skillID).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: skill %s", ErrNotFound, skillID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	return nil
}
