package user

import (
	"strings"
	"time"
)

// Roles a profile can hold. "both" means the user acts as mentor and learner.
const (
	RoleMentor  = "mentor"
	RoleLearner = "learner"
	RoleBoth    = "both"
)

func IsValidRole(r string) bool {
	return r == RoleMentor || r == RoleLearner || r == RoleBoth
}

// Profile is the user document stored in the users collection. Identity (the
// UID) is assigned by Firebase Auth at registration.
type Profile struct {
	UID          string    `firestore:"-" json:"uid"`
	FirstName    string    `firestore:"firstName" json:"firstName"`
	LastName     string    `firestore:"lastName" json:"lastName"`
	Username     string    `firestore:"username" json:"username"`
	Email        string    `firestore:"email" json:"email"`
	Role         string    `firestore:"role" json:"role"`
	PhotoURL     string    `firestore:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Biography    string    `firestore:"biography,omitempty" json:"biography,omitempty"`
	Availability string    `firestore:"availability,omitempty" json:"availability,omitempty"`
	FCMToken     string    `firestore:"fcmToken,omitempty" json:"-"`
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updatedAt"`

	// Stale is set when the profile was served from the local mirror because
	// the remote store was unreachable. Never persisted.
	Stale bool `firestore:"-" json:"stale,omitempty"`
}

// RegisterInput is the payload for creating a profile.
type RegisterInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Biography    string `json:"biography,omitempty"`
	Availability string `json:"availability,omitempty"`
}

func (in *RegisterInput) Trim() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	in.Biography = strings.TrimSpace(in.Biography)
	in.Availability = strings.TrimSpace(in.Availability)
}

// UpdateInput is the payload for a partial profile update.
type UpdateInput struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	Username     *string `json:"username,omitempty"`
	Role         *string `json:"role,omitempty"`
	PhotoURL     *string `json:"photoUrl,omitempty"`
	Biography    *string `json:"biography,omitempty"`
	Availability *string `json:"availability,omitempty"`
	FCMToken     *string `json:"fcmToken,omitempty"`
}

func (in *UpdateInput) Trim() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(in.FirstName)
	trim(in.LastName)
	trim(in.Username)
	trim(in.Role)
	trim(in.PhotoURL)
	trim(in.Biography)
	trim(in.Availability)
	trim(in.FCMToken)
}
