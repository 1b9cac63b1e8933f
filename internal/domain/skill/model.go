package skill

import (
	"strings"
)

// Skill types: something the user teaches, or something they want to learn.
const (
	TypeTeach = "TEACH"
	TypeLearn = "LEARN"
)

func IsValidType(t string) bool {
	return t == TypeTeach || t == TypeLearn
}

// Skill is stored in the skills subcollection under the owning user document.
type Skill struct {
	ID     string `firestore:"-" json:"id"`
	UserID string `firestore:"userId" json:"userId"`
	Name   string `firestore:"name" json:"name"`
	Type   string `firestore:"type" json:"type"`
	Level  int    `firestore:"level" json:"level"` // 1..5 ordinal
}

// AddSkillInput is the payload for adding a skill.
type AddSkillInput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Level int    `json:"level"`
}

func (in *AddSkillInput) Trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(strings.ToUpper(in.Type))
}
