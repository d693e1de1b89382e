package domain

import "strings"

// Committee describes one of the organization's fixed committees.
type Committee struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Aliases []string `json:"-"`
}

// Committees is the full registry, in display order.
var Committees = []Committee{
	{
		Key:     "sports",
		Name:    "Sports Committee",
		Summary: "Leads athletics, intramurals, and campus spirit events.",
		Aliases: []string{"athletics", "sports committee"},
	},
	{
		Key:     "social",
		Name:    "Social Committee",
		Summary: "Plans mixers, welcome events, and cohort traditions.",
		Aliases: []string{"social committee"},
	},
	{
		Key:     "cultural",
		Name:    "Cultural Committee",
		Summary: "Celebrates heritage nights, arts showcases, and shared identities.",
		Aliases: []string{"culture", "cultral", "cultural committee"},
	},
	{
		Key:     "science",
		Name:    "Science Committee",
		Summary: "Hosts innovation labs, research spotlights, and STEM outreach.",
		Aliases: []string{"stem", "science committee"},
	},
	{
		Key:     "art",
		Name:    "Art Committee",
		Summary: "Curates galleries, performances, and creative workshops.",
		Aliases: []string{"arts", "art committee"},
	},
}

// NormalizeCommitteeKey maps free-form committee references (path fragments,
// display names, aliases, historical misspellings) onto a registry key.
// Unrecognized input normalizes to the empty string, meaning "no committee".
func NormalizeCommitteeKey(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.TrimPrefix(token, "/")
	token = strings.TrimSuffix(token, "/")
	token = strings.TrimSuffix(token, ".html")
	token = strings.ReplaceAll(token, "_", " ")
	token = strings.ReplaceAll(token, "-", " ")
	token = strings.Join(strings.Fields(token), " ")
	if strings.HasSuffix(token, "committee") && !strings.HasSuffix(token, " committee") {
		token = strings.TrimSuffix(token, "committee") + " committee"
		token = strings.TrimSpace(token)
	}

	candidates := map[string]struct{}{token: {}}
	candidates[strings.TrimSpace(strings.TrimSuffix(token, " committee"))] = struct{}{}

	for _, c := range Committees {
		if c.Key == token || strings.ToLower(c.Name) == token {
			return c.Key
		}
		if _, ok := candidates[c.Key]; ok {
			return c.Key
		}
		if _, ok := candidates[strings.ToLower(c.Name)]; ok {
			return c.Key
		}
		for _, alias := range c.Aliases {
			aliasToken := strings.Join(strings.Fields(strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(alias), "_", " "), "-", " ")), " ")
			if _, ok := candidates[aliasToken]; ok {
				return c.Key
			}
		}
	}
	return ""
}

// CommitteeByKey resolves a registry entry from any input NormalizeCommitteeKey
// accepts. Returns nil when nothing matches.
func CommitteeByKey(key string) *Committee {
	normalized := NormalizeCommitteeKey(key)
	if normalized == "" {
		return nil
	}
	for i := range Committees {
		if Committees[i].Key == normalized {
			return &Committees[i]
		}
	}
	return nil
}

// CommitteeLabel renders a display label for a stored committee value:
// registry name when known, otherwise a title-cased cleanup of the raw value.
func CommitteeLabel(stored string) string {
	if stored == "" {
		return ""
	}
	if c := CommitteeByKey(stored); c != nil {
		return c.Name
	}
	cleaned := strings.ReplaceAll(strings.ReplaceAll(stored, "-", " "), "_", " ")
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
