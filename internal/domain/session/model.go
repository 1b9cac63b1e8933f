package session

import (
	"strings"
	"time"
)

// Session statuses and their lifecycle:
// pending -> confirmed -> completed
// pending/confirmed -> cancelled
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// canTransition is the total mapping of allowed status moves.
func canTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// LearningSession is a scheduled mentoring session, stored in the sessions
// collection.
type LearningSession struct {
	ID              string    `firestore:"-" json:"id"`
	MentorID        string    `firestore:"mentorId" json:"mentorId"`
	LearnerID       string    `firestore:"learnerId" json:"learnerId"`
	LearnerName     string    `firestore:"learnerName,omitempty" json:"learnerName,omitempty"`
	Date            time.Time `firestore:"date" json:"date"`
	DurationMinutes int       `firestore:"durationMinutes" json:"durationMinutes"`
	Status          string    `firestore:"status" json:"status"`
	Price           float64   `firestore:"price,omitempty" json:"price,omitempty"`
	MeetingLink     string    `firestore:"meetingLink,omitempty" json:"meetingLink,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// CreateSessionInput is the payload for scheduling a session.
type CreateSessionInput struct {
	LearnerID       string    `json:"learnerId"`
	LearnerName     string    `json:"learnerName,omitempty"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           float64   `json:"price,omitempty"`
	MeetingLink     string    `json:"meetingLink,omitempty"`
}

func (in *CreateSessionInput) Trim() {
	in.LearnerID = strings.TrimSpace(in.LearnerID)
	in.LearnerName = strings.TrimSpace(in.LearnerName)
	in.MeetingLink = strings.TrimSpace(in.MeetingLink)
}
