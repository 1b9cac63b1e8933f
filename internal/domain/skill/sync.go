package skill

import (
	"skillsync/backend/internal/mirror"
)

// diffSkills computes a one-shot reconciliation plan between the remote skill
// set and the mirrored one: skills present remotely but missing locally are
// inserted, mirror rows with no remote counterpart are deleted. Comparison is
// by id only; a concurrent modification during the diff can leave the mirror
// inconsistent until the next sync.
func diffSkills(remote []Skill, local []mirror.SkillRow) (toInsert []Skill, toDelete []string) {
	remoteIDs := make(map[string]struct{}, len(remote))
	for _, sk := range remote {
		remoteIDs[sk.ID] = struct{}{}
	}
	localIDs := make(map[string]struct{}, len(local))
	for _, row := range local {
		localIDs[row.ID] = struct{}{}
	}

	for _, sk := range remote {
		if _, ok := localIDs[sk.ID]; !ok {
			toInsert = append(toInsert, sk)
		}
	}
	for _, row := range local {
		if _, ok := remoteIDs[row.ID]; !ok {
			toDelete = append(toDelete, row.ID)
		}
	}
	return toInsert, toDelete
}

func toRow(sk Skill) mirror.SkillRow {
	return mirror.SkillRow{
		ID:     sk.ID,
		UserID: sk.UserID,
		Name:   sk.Name,
		Type:   sk.Type,
		Level:  sk.Level,
	}
}
