package gamification

import "github.com/shopspring/decimal"

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type Category string

const (
	CategoryContributions Category = "contributions"
	CategoryStreak        Category = "streak"
	CategoryMilestone     Category = "milestone"
)

type RequirementKind string

const (
	RequirementContributionCount RequirementKind = "contribution_count"
	RequirementTotalAmount       RequirementKind = "total_amount"
	RequirementStreakMonths      RequirementKind = "streak_months"
	RequirementLevel             RequirementKind = "level"
)

// Achievement is an immutable catalog entry. Points are bonus coins granted
// once on unlock.
type Achievement struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Icon            string          `json:"icon"`
	Rarity          Rarity          `json:"rarity"`
	Points          int64           `json:"points"`
	Category        Category        `json:"category"`
	Requirement     int64           `json:"requirement"`
	RequirementKind RequirementKind `json:"requirementType"`
}

// Stats is the aggregate a user is judged against.
type Stats struct {
	ContributionCount int64           `json:"contributionCount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	StreakMonths      int             `json:"streakMonths"`
	Level             int             `json:"level"`
}

// Current returns the stat value the achievement's requirement is measured on.
func (a Achievement) Current(s Stats) decimal.Decimal {
	switch a.RequirementKind {
	case RequirementContributionCount:
		return decimal.NewFromInt(s.ContributionCount)
	case RequirementTotalAmount:
		return s.TotalAmount
	case RequirementStreakMonths:
		return decimal.NewFromInt(int64(s.StreakMonths))
	case RequirementLevel:
		return decimal.NewFromInt(int64(s.Level))
	}
	return decimal.Zero
}

// Qualifies reports whether s meets the requirement (inclusive).
func (a Achievement) Qualifies(s Stats) bool {
	switch a.RequirementKind {
	case RequirementContributionCount, RequirementTotalAmount, RequirementStreakMonths, RequirementLevel:
		return a.Current(s).GreaterThanOrEqual(decimal.NewFromInt(a.Requirement))
	}
	return false
}

var catalog = []Achievement{
	{ID: "first_contribution", Title: "First Steps", Description: "Made your first contribution", Icon: "star", Rarity: RarityCommon, Points: 50, Category: CategoryContributions, Requirement: 1, RequirementKind: RequirementContributionCount},
	{ID: "five_contributions", Title: "Getting Started", Description: "Made 5 contributions", Icon: "award", Rarity: RarityCommon, Points: 100, Category: CategoryContributions, Requirement: 5, RequirementKind: RequirementContributionCount},
	{ID: "ten_contributions", Title: "Dedicated Partner", Description: "Made 10 contributions", Icon: "medal", Rarity: RarityRare, Points: 200, Category: CategoryContributions, Requirement: 10, RequirementKind: RequirementContributionCount},
	{ID: "twenty_five_contributions", Title: "Impact Champion", Description: "Made 25 contributions", Icon: "trophy", Rarity: RarityEpic, Points: 500, Category: CategoryContributions, Requirement: 25, RequirementKind: RequirementContributionCount},
	{ID: "fifty_contributions", Title: "Legendary Giver", Description: "Made 50 contributions", Icon: "crown", Rarity: RarityLegendary, Points: 1000, Category: CategoryContributions, Requirement: 50, RequirementKind: RequirementContributionCount},

	{ID: "total_10k", Title: "Rising Star", Description: "Contributed ₦10,000 total", Icon: "star", Rarity: RarityCommon, Points: 100, Category: CategoryMilestone, Requirement: 10000, RequirementKind: RequirementTotalAmount},
	{ID: "total_50k", Title: "Impact Maker", Description: "Contributed ₦50,000 total", Icon: "target", Rarity: RarityRare, Points: 300, Category: CategoryMilestone, Requirement: 50000, RequirementKind: RequirementTotalAmount},
	{ID: "total_100k", Title: "Philanthropist", Description: "Contributed ₦100,000 total", Icon: "heart", Rarity: RarityEpic, Points: 600, Category: CategoryMilestone, Requirement: 100000, RequirementKind: RequirementTotalAmount},
	{ID: "total_500k", Title: "Legacy Builder", Description: "Contributed ₦500,000 total", Icon: "crown", Rarity: RarityLegendary, Points: 1500, Category: CategoryMilestone, Requirement: 500000, RequirementKind: RequirementTotalAmount},

	{ID: "streak_3", Title: "On Fire", Description: "Maintained a 3-month contribution streak", Icon: "flame", Rarity: RarityCommon, Points: 75, Category: CategoryStreak, Requirement: 3, RequirementKind: RequirementStreakMonths},
	{ID: "streak_6", Title: "Consistency King", Description: "Maintained a 6-month contribution streak", Icon: "flame", Rarity: RarityRare, Points: 200, Category: CategoryStreak, Requirement: 6, RequirementKind: RequirementStreakMonths},
	{ID: "streak_12", Title: "Year of Impact", Description: "Maintained a 12-month contribution streak", Icon: "zap", Rarity: RarityLegendary, Points: 500, Category: CategoryStreak, Requirement: 12, RequirementKind: RequirementStreakMonths},

	{ID: "level_5", Title: "Rising Partner", Description: "Reached Level 5", Icon: "medal", Rarity: RarityCommon, Points: 150, Category: CategoryMilestone, Requirement: 5, RequirementKind: RequirementLevel},
	{ID: "level_10", Title: "Veteran Partner", Description: "Reached Level 10", Icon: "trophy", Rarity: RarityRare, Points: 400, Category: CategoryMilestone, Requirement: 10, RequirementKind: RequirementLevel},
	{ID: "level_25", Title: "Elite Partner", Description: "Reached Level 25", Icon: "crown", Rarity: RarityLegendary, Points: 1000, Category: CategoryMilestone, Requirement: 25, RequirementKind: RequirementLevel},
}

// Catalog returns a copy of the achievement catalog in its fixed evaluation
// order.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// AchievementByID looks up a catalog entry.
func AchievementByID(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
