package model

import "strings"

// Intent is the coarse content-purpose category used to filter the viral corpus.
type Intent string

const (
	IntentEducational   Intent = "educational"
	IntentInspirational Intent = "inspirational"
	IntentPromotional   Intent = "promotional"
	IntentEntertainment Intent = "entertainment"
)

// AllIntents lists every valid intent, in display order.
var AllIntents = []Intent{
	IntentEducational,
	IntentInspirational,
	IntentPromotional,
	IntentEntertainment,
}

// ParseIntent normalizes and validates an intent string.
func ParseIntent(s string) (Intent, bool) {
	candidate := Intent(strings.ToLower(strings.TrimSpace(s)))
	for _, intent := range AllIntents {
		if candidate == intent {
			return intent, true
		}
	}
	return "", false
}

func (i Intent) String() string { return string(i) }
