package gamification

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("amount must not be negative")

const (
	// CoinUnit is the contribution amount worth one base coin.
	CoinUnit = 100
	// ExperienceUnit is the contribution amount worth one base XP.
	ExperienceUnit = 50
	// coinStreakBonusPct is the coin bonus per streak month, in percent.
	coinStreakBonusPct = 5
	// experienceStreakBonusPct is the XP bonus per streak month, in percent.
	experienceStreakBonusPct = 10
)

// CoinsFromContribution returns floor(amount/100) plus a 5% bonus per streak
// month, rounded down.
func CoinsFromContribution(amount decimal.Decimal, streak int) (int64, error) {
	return withStreakBonus(amount, CoinUnit, coinStreakBonusPct, streak)
}

// ExperienceFromContribution returns floor(amount/50) plus a 10% bonus per
// streak month, rounded down.
func ExperienceFromContribution(amount decimal.Decimal, streak int) (int64, error) {
	return withStreakBonus(amount, ExperienceUnit, experienceStreakBonusPct, streak)
}

// withStreakBonus computes base + floor(base*streak*pct/100) in integers so
// the bonus is never lost to float rounding.
func withStreakBonus(amount decimal.Decimal, unit int64, pct int64, streak int) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	if streak < 0 {
		streak = 0
	}
	base := amount.Div(decimal.NewFromInt(unit)).Floor().IntPart()
	bonus := base * int64(streak) * pct / 100
	return base + bonus, nil
}
