package engine

import (
	"fmt"
	"strings"
)

func ParseMatchMode(input string) (MatchMode, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "", "any":
		return MatchAny, nil
	case "all":
		return MatchAll, nil
	default:
		return "", fmt.Errorf("invalid match mode: %q", input)
	}
}

// MatchesTags applies the tag filter to a single quest. An empty selection
// matches everything.
func MatchesTags(q Quest, selected []string, mode MatchMode) bool {
	if len(selected) == 0 {
		return true
	}
	if mode == MatchAll {
		for _, tag := range selected {
			if !q.HasTag(tag) {
				return false
			}
		}
		return true
	}
	for _, tag := range selected {
		if q.HasTag(tag) {
			return true
		}
	}
	return false
}

func FilterByTags(items []DayQuestItem, selected []string, mode MatchMode) []DayQuestItem {
	if len(selected) == 0 {
		return items
	}
	out := make([]DayQuestItem, 0, len(items))
	for _, it := range items {
		if MatchesTags(it.Quest, selected, mode) {
			out = append(out, it)
		}
	}
	return out
}

// NormalizeTags trims, lowercases and de-duplicates tag identifiers.
func NormalizeTags(tags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
