package card

import (
	"strings"
	"time"
)

// Experience levels a mentor can advertise on a card.
var ValidExperienceLevels = []string{"beginner", "novice", "intermediate", "advanced", "expert"}

func IsValidExperienceLevel(l string) bool {
	for _, v := range ValidExperienceLevels {
		if v == l {
			return true
		}
	}
	return false
}

// TeachingCard is a mentor's advertised offering, stored in teaching_cards.
// LearnerCount is maintained only by the enrollment transaction and always
// equals the number of documents in the enrollments subcollection.
type TeachingCard struct {
	ID              string    `firestore:"-" json:"id"`
	MentorID        string    `firestore:"mentorId" json:"mentorId"`
	MentorName      string    `firestore:"mentorName" json:"mentorName"`
	MentorPhotoURL  string    `firestore:"mentorPhotoUrl,omitempty" json:"mentorPhotoUrl,omitempty"`
	Title           string    `firestore:"title" json:"title"`
	Description     string    `firestore:"description" json:"description"`
	Category        string    `firestore:"category" json:"category"`
	CategorySlug    string    `firestore:"categorySlug" json:"-"`
	ExperienceLevel string    `firestore:"experienceLevel" json:"experienceLevel"`
	Availability    string    `firestore:"availability,omitempty" json:"availability,omitempty"`
	LearnerCount    int64     `firestore:"learnerCount" json:"learnerCount"`
	IsActive        bool      `firestore:"isActive" json:"isActive"`
	ImageURL        string    `firestore:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ImagePath       string    `firestore:"imagePath,omitempty" json:"-"`
	SearchTokens    []string  `firestore:"searchTokens" json:"-"`
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt" json:"updatedAt"`

	// Enrolled is set on single-card reads for the viewing learner. Never
	// persisted.
	Enrolled bool `firestore:"-" json:"enrolled"`
}

// Enrollment is a per-card subcollection record keyed by learner id.
type Enrollment struct {
	LearnerID  string    `firestore:"learnerId" json:"learnerId"`
	EnrolledAt time.Time `firestore:"enrolledAt" json:"enrolledAt"`
}

// Image carries uploaded image bytes through the service layer.
type Image struct {
	Data        []byte
	ContentType string
}

// CreateCardInput is the payload for creating a teaching card.
type CreateCardInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	ExperienceLevel string `json:"experienceLevel"`
	Availability    string `json:"availability,omitempty"`
}

func (in *CreateCardInput) Trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.ExperienceLevel = strings.TrimSpace(strings.ToLower(in.ExperienceLevel))
	in.Availability = strings.TrimSpace(in.Availability)
}

// UpdateCardInput is the payload for a partial card update.
type UpdateCardInput struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	Category        *string `json:"category,omitempty"`
	ExperienceLevel *string `json:"experienceLevel,omitempty"`
	Availability    *string `json:"availability,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
}

func (in *UpdateCardInput) Trim() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(in.Title)
	trim(in.Description)
	trim(in.Category)
	trim(in.Availability)
	if in.ExperienceLevel != nil {
		*in.ExperienceLevel = strings.TrimSpace(strings.ToLower(*in.ExperienceLevel))
	}
}

// ListCardsInput filters the card listing. Category matches against the
// stored slug, so "Guitarra Flamenca" and "guitarra-flamenca" find the same
// cards.
type ListCardsInput struct {
	Query      string `json:"q,omitempty"`
	Category   string `json:"category,omitempty"`
	MentorID   string `json:"mentorId,omitempty"`
	ActiveOnly bool   `json:"activeOnly,omitempty"`
	Limit      int64  `json:"limit,omitempty"`
}
