package util

import (
	"strings"
)

// RepairJSON strips a markdown code fence (with or without a json tag) from
// around a model-produced argument payload. Nothing else is rewritten: a
// payload that is not valid JSON once unfenced stays invalid.
// It returns the possibly repaired string and true if a fence was removed.
func RepairJSON(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if len(t) < 6 || !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") {
		return s, false
	}
	t = strings.TrimSpace(t[3 : len(t)-3])
	if strings.HasPrefix(strings.ToLower(t), "json") {
		t = strings.TrimSpace(t[4:])
	}
	return t, true
}
