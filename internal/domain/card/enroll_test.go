package card

import (
	"errors"
	"testing"
)

func TestApplyEnrollIncrementsCounter(t *testing.T) {
	c := TeachingCard{ID: "c1", IsActive: true, LearnerCount: 2}
	if err := applyEnroll(&c, false); err != nil {
		t.Fatalf("applyEnroll: %v", err)
	}
	if c.LearnerCount != 3 {
		t.Fatalf("expected learnerCount 3, got %d", c.LearnerCount)
	}
}

func TestApplyEnrollRejectsInactiveCard(t *testing.T) {
	c := TeachingCard{ID: "c1", IsActive: false, LearnerCount: 1}
	err := applyEnroll(&c, false)
	if !errors.Is(err, ErrCardInactive) {
		t.Fatalf("expected ErrCardInactive, got %v", err)
	}
	if c.LearnerCount != 1 {
		t.Fatalf("failed enroll must not change the counter, got %d", c.LearnerCount)
	}
}

func TestApplyEnrollRejectsDoubleEnroll(t *testing.T) {
	c := TeachingCard{ID: "c1", IsActive: true, LearnerCount: 5}
	err := applyEnroll(&c, true)
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
	if c.LearnerCount != 5 {
		t.Fatalf("double enroll must leave learnerCount unchanged, got %d", c.LearnerCount)
	}
}

func TestApplyUnenrollRequiresEnrollment(t *testing.T) {
	c := TeachingCard{ID: "c1", IsActive: true, LearnerCount: 1}
	err := applyUnenroll(&c, false)
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
	if c.LearnerCount != 1 {
		t.Fatalf("failed unenroll must not change the counter, got %d", c.LearnerCount)
	}
}

func TestApplyUnenrollNeverGoesNegative(t *testing.T) {
	c := TeachingCard{ID: "c1", IsActive: true, LearnerCount: 0}
	if err := applyUnenroll(&c, true); err != nil {
		t.Fatalf("applyUnenroll: %v", err)
	}
	if c.LearnerCount != 0 {
		t.Fatalf("counter must not go negative, got %d", c.LearnerCount)
	}
}

func TestEnrollThenUnenrollRestoresCounter(t *testing.T) {
	c := TeachingCard{ID: "c1", IsActive: true, LearnerCount: 7}

	if err := applyEnroll(&c, false); err != nil {
		t.Fatalf("applyEnroll: %v", err)
	}
	if c.LearnerCount != 8 {
		t.Fatalf("expected 8 after enroll, got %d", c.LearnerCount)
	}
	if err := applyUnenroll(&c, true); err != nil {
		t.Fatalf("applyUnenroll: %v", err)
	}
	if c.LearnerCount != 7 {
		t.Fatalf("expected counter restored to 7, got %d", c.LearnerCount)
	}
}
