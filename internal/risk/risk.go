// Package risk derives a partner's risk tier from declined contributions.
package risk

const (
	FlagThreshold    = 3
	SuspendThreshold = 5
)

// Tier is the persisted projection of the declined count. It is always
// recomputed from the count, never adjusted in place.
type Tier struct {
	Flagged       bool `json:"flagged"`
	Suspended     bool `json:"suspended"`
	DeclinedCount int  `json:"declinedContributionsCount"`
}

func Classify(declinedCount int) Tier {
	if declinedCount < 0 {
		declinedCount = 0
	}
	return Tier{
		Flagged:       declinedCount >= FlagThreshold,
		Suspended:     declinedCount >= SuspendThreshold,
		DeclinedCount: declinedCount,
	}
}
