package stats

import (
	"errors"
	"fmt"
)

var ErrBadRequest = errors.New("bad request")

// Role selects which session queries a watcher aggregates. Both sums two
// independent listeners; the result is recomputed whenever either fires, so it
// is an eventually consistent approximation rather than one atomic count.
type Role string

const (
	RoleMentor  Role = "mentor"
	RoleLearner Role = "learner"
	RoleBoth    Role = "both"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMentor, RoleLearner, RoleBoth:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: role must be one of: mentor, learner, both", ErrBadRequest)
}

// queryKinds is the total mapping from a role to the session queries it
// aggregates.
func (r Role) queryKinds() []queryKind {
	switch r {
	case RoleMentor:
		return []queryKind{queryAsMentor}
	case RoleLearner:
		return []queryKind{queryAsLearner}
	case RoleBoth:
		return []queryKind{queryAsMentor, queryAsLearner}
	}
	return nil
}

type queryKind int

const (
	queryAsMentor queryKind = iota
	queryAsLearner
)
