package skill

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"skillsync/backend/internal/mirror"
)

// skillStore is the slice of Repo the service needs.
type skillStore interface {
	List(ctx context.Context, uid, skillType string) ([]Skill, error)
	Add(ctx context.Context, uid string, sk Skill) (*Skill, error)
	Delete(ctx context.Context, uid, skillID string) error
}

type Service struct {
	store  skillStore
	mirror mirror.Store
	log    *zap.Logger
}

func NewService(store skillStore, m mirror.Store, log *zap.Logger) *Service {
	return &Service{store: store, mirror: m, log: log}
}

// List fetches the user's skills from the remote store, falling back to the
// mirror when the remote read fails (offline read path).
func (s *Service) List(ctx context.Context, uid, skillType string) ([]Skill, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	if skillType != "" && !IsValidType(skillType) {
		return nil, fmt.Errorf("%w: type must be TEACH or LEARN", ErrBadRequest)
	}

	skills, err := s.store.List(ctx, uid, skillType)
	if err == nil {
		return skills, nil
	}

	rows, mErr := s.mirror.ListSkills(ctx, uid, skillType)
	if mErr != nil {
		return nil, err
	}
	s.log.Warn("serving skills from local mirror", zap.String("uid", uid), zap.Error(err))
	out := make([]Skill, 0, len(rows))
	for _, row := range rows {
		out = append(out, Skill{ID: row.ID, UserID: row.UserID, Name: row.Name, Type: row.Type, Level: row.Level})
	}
	return out, nil
}

// Add writes the skill to the remote store first and mirrors it locally only
// on success.
func (s *Service) Add(ctx context.Context, uid string, in AddSkillInput) (*Skill, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	in.Trim()
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	if !IsValidType(in.Type) {
		return nil, fmt.Errorf("%w: type must be TEACH or LEARN", ErrBadRequest)
	}
	if in.Level < 1 || in.Level > 5 {
		return nil, fmt.Errorf("%w: level must be 1-5", ErrBadRequest)
	}

	sk, err := s.store.Add(ctx, uid, Skill{Name: in.Name, Type: in.Type, Level: in.Level})
	if err != nil {
		return nil, err
	}

	if err := s.mirror.PutSkill(ctx, toRow(*sk)); err != nil {
		s.log.Warn("failed to mirror skill", zap.String("uid", uid), zap.Error(err))
	}
	return sk, nil
}

// Delete removes the skill remotely first, then drops the mirror row.
func (s *Service) Delete(ctx context.Context, uid, skillID string) error {
	if uid == "" {
		return fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	if skillID == "" {
		return fmt.Errorf("%w: skillId is required", ErrBadRequest)
	}

	if err := s.store.Delete(ctx, uid, skillID); err != nil {
		return err
	}
	if err := s.mirror.DeleteSkill(ctx, uid, skillID); err != nil {
		s.log.Warn("failed to drop mirrored skill", zap.String("uid", uid), zap.Error(err))
	}
	return nil
}

// Sync performs a one-shot reconciliation of the mirror against the remote
// skill set. Failures are logged and recorded as a staleness flag, never
// returned: a background refresh must not interrupt the caller.
func (s *Service) Sync(ctx context.Context, uid string) {
	if uid == "" {
		return
	}

	remote, err := s.store.List(ctx, uid, "")
	if err != nil {
		s.markStale(ctx, uid, err)
		return
	}
	local, err := s.mirror.ListSkills(ctx, uid, "")
	if err != nil {
		s.markStale(ctx, uid, err)
		return
	}

	toInsert, toDelete := diffSkills(remote, local)

	failed := false
	for _, id := range toDelete {
		if err := s.mirror.DeleteSkill(ctx, uid, id); err != nil {
			s.log.Warn("sync: failed to delete mirror row", zap.String("uid", uid), zap.String("skillId", id), zap.Error(err))
			failed = true
		}
	}
	for _, sk := range toInsert {
		if err := s.mirror.PutSkill(ctx, toRow(sk)); err != nil {
			s.log.Warn("sync: failed to insert mirror row", zap.String("uid", uid), zap.String("skillId", sk.ID), zap.Error(err))
			failed = true
		}
	}

	if err := s.mirror.SetStale(ctx, uid, failed); err != nil {
		s.log.Warn("sync: failed to record staleness", zap.String("uid", uid), zap.Error(err))
	}
}

// Stale reports whether the mirror for uid is known to lag the remote store.
func (s *Service) Stale(ctx context.Context, uid string) bool {
	stale, err := s.mirror.Stale(ctx, uid)
	if err != nil {
		return false
	}
	return stale
}

func (s *Service) markStale(ctx context.Context, uid string, cause error) {
	s.log.Warn("skill sync failed", zap.String("uid", uid), zap.Error(cause))
	if err := s.mirror.SetStale(ctx, uid, true); err != nil {
		s.log.Warn("failed to record staleness", zap.String("uid", uid), zap.Error(err))
	}
}
