package gamification

import "time"

// MonthsBetween returns the number of calendar months from last to now, both
// taken in loc. Same month is 0; it is negative if now precedes last.
func MonthsBetween(last, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	l := last.In(loc)
	n := now.In(loc)
	return (n.Year()-l.Year())*12 + int(n.Month()) - int(l.Month())
}

// NextStreak applies a contribution made at now to a monthly streak:
// first contribution starts at 1, the following calendar month extends it,
// a gap of more than one month restarts it at 1, and the same month (or a
// clock that went backwards) leaves it unchanged.
func NextStreak(current int, last *time.Time, now time.Time, loc *time.Location) int {
	if last == nil || last.IsZero() {
		return 1
	}
	switch diff := MonthsBetween(*last, now, loc); {
	case diff == 1:
		return current + 1
	case diff > 1:
		return 1
	default:
		return current
	}
}
