package steps

import "strings"

// Merge folds observed into current. A non-empty observation replaces the stored
// value; an empty one never erases it.
func Merge(current, observed Facts) (Facts, bool) {
	merged := current
	changed := false
	apply := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v == "" || v == *dst {
			return
		}
		*dst = v
		changed = true
	}
	apply(&merged.LovedOneName, observed.LovedOneName)
	apply(&merged.RelationshipStatus, observed.RelationshipStatus)
	apply(&merged.Intent, observed.Intent)
	apply(&merged.RelationalStyle, observed.RelationalStyle)
	apply(&merged.EmotionalState, observed.EmotionalState)
	return merged, changed
}
