package card

import (
	"fmt"
)

// applyEnroll checks the enrollment preconditions and bumps the counter on the
// in-transaction card snapshot. The caller commits the mutated card together
// with the enrollment document, so counter and record change atomically.
func applyEnroll(c *TeachingCard, alreadyEnrolled bool) error {
	if !c.IsActive {
		return fmt.Errorf("%w: card %s", ErrCardInactive, c.ID)
	}
	if alreadyEnrolled {
		return fmt.Errorf("%w: card %s", ErrAlreadyEnrolled, c.ID)
	}
	c.LearnerCount++
	return nil
}

// applyUnenroll is the inverse. The counter never drops below zero even if the
// stored value was corrupted out of band.
func applyUnenroll(c *TeachingCard, enrolled bool) error {
	if !enrolled {
		return fmt.Errorf("%w: card %s", ErrNotEnrolled, c.ID)
	}
	if c.LearnerCount > 0 {
		c.LearnerCount--
	}
	return nil
}
