package gamification

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCoinsFromContribution(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		streak int
		want   int64
	}{
		{"no streak", "1000", 0, 10},
		{"four month streak", "1000", 4, 12},
		{"scenario amount", "5000", 2, 55},
		{"below one coin", "99.99", 3, 0},
		{"fractional amount floors", "250.75", 0, 2},
		{"zero", "0", 5, 0},
		{"negative streak ignored", "1000", -2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoinsFromContribution(decimal.RequireFromString(tt.amount), tt.streak)
			if err != nil {
				t.Fatalf("err=%v", err)
			}
			if got != tt.want {
				t.Fatalf("got=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestExperienceFromContribution(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		streak int
		want   int64
	}{
		{"no streak", "1000", 0, 20},
		{"two month streak", "1000", 2, 24},
		{"scenario amount", "5000", 2, 120},
		{"zero", "0", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExperienceFromContribution(decimal.RequireFromString(tt.amount), tt.streak)
			if err != nil {
				t.Fatalf("err=%v", err)
			}
			if got != tt.want {
				t.Fatalf("got=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestRewardsRejectNegativeAmount(t *testing.T) {
	if _, err := CoinsFromContribution(decimal.NewFromInt(-1), 0); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("coins err=%v want ErrNegativeAmount", err)
	}
	if _, err := ExperienceFromContribution(decimal.NewFromInt(-1), 0); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("xp err=%v want ErrNegativeAmount", err)
	}
}
