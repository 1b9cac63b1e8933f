package chat

// bumpUnread increments the unread counter of every participant except the
// sender and returns the updated map. The mutation runs inside the same
// transaction as the message write, so concurrent sends cannot lose
// increments.
func bumpUnread(counts map[string]int64, participants []string, senderID string) map[string]int64 {
	out := make(map[string]int64, len(participants))
	for k, v := range counts {
		out[k] = v
	}
	for _, p := range participants {
		if p == senderID {
			continue
		}
		out[p]++
	}
	return out
}

// recipientsOf returns every participant except the sender.
func recipientsOf(participants []string, senderID string) []string {
	out := make([]string, 0, len(participants))
	for _, p := range participants {
		if p != senderID {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
