// Package mirror is the local mirror of the remote store: a disposable,
// rebuildable cache of user records and skills used for offline read fallback.
// The remote store stays the system of record; rows here are only written after
// the corresponding remote operation succeeded, or during an explicit sync.
package mirror

import (
	"context"
	"time"
)

// UserRow is the mirrored shape of a user profile. PasswordHash is the legacy
// local credential path; it never reaches the remote store.
type UserRow struct {
	UID          string    `json:"uid"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         string    `json:"role"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	Biography    string    `json:"biography,omitempty"`
	Availability string    `json:"availability,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SkillRow is the mirrored shape of a skill.
type SkillRow struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Type   string `json:"type"` // TEACH | LEARN
	Level  int    `json:"level"`
}

// Store is the mirror contract consumed by the domain services. Implementations
// must tolerate the mirror being wiped at any time.
type Store interface {
	PutUser(ctx context.Context, row UserRow) error
	GetUser(ctx context.Context, uid string) (*UserRow, error)
	DeleteUser(ctx context.Context, uid string) error

	PutSkill(ctx context.Context, row SkillRow) error
	DeleteSkill(ctx context.Context, uid, skillID string) error
	ListSkills(ctx context.Context, uid, skillType string) ([]SkillRow, error)

	// DeleteAllForUser removes the user row, all skill rows and the staleness
	// flag for uid.
	DeleteAllForUser(ctx context.Context, uid string) error

	// SetStale records that the mirror for uid may lag the remote store.
	// Background sync failures are never surfaced to callers, but the degraded
	// state stays observable through Stale.
	SetStale(ctx context.Context, uid string, stale bool) error
	Stale(ctx context.Context, uid string) (bool, error)
}
