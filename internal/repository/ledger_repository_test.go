package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/dbtest"
	"github.com/zeroup-initiative/partner-backend/internal/model"
)

func seedContribution(t *testing.T, repo ContributionRepository, id, uid string, amount string, status model.ContributionStatus) *model.Contribution {
	t.Helper()
	c := &model.Contribution{
		ID:           id,
		UserUID:      uid,
		UserFullName: "Ada Obi",
		Amount:       decimal.RequireFromString(amount),
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ProjectName:  "Solar Schools",
		Status:       status,
	}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("create contribution: %v", err)
	}
	return c
}

func TestLedgerGetCreatesDefault(t *testing.T) {
	repo := NewLedgerRepository(dbtest.Open(t))
	uc, err := repo.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if uc.Level != 1 || uc.ExperienceToNextLevel != 100 || uc.Balance != 0 || uc.LastContributionDate != nil {
		t.Fatalf("unexpected default ledger: %+v", uc)
	}
	again, err := repo.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.UID != "u1" {
		t.Fatalf("uid=%q", again.UID)
	}
}

func TestLedgerApplyGuardsContribution(t *testing.T) {
	gdb := dbtest.Open(t)
	ledger := NewLedgerRepository(gdb)
	contribs := NewContributionRepository(gdb)
	seedContribution(t, contribs, "c1", "u1", "5000", model.ContributionStatusApproved)

	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	plan := func(cur model.UserCoins) (LedgerUpdate, error) {
		return LedgerUpdate{Coins: 50, Experience: 100, Level: 1, ExperienceToNextLevel: 100, Streak: 1, LastContributionDate: now}, nil
	}
	before, after, err := ledger.Apply(context.Background(), "u1", "c1", plan)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if before.Balance != 0 || after.Balance != 50 || after.TotalEarned != 50 || after.Experience != 100 {
		t.Fatalf("before=%+v after=%+v", before, after)
	}
	if _, _, err := ledger.Apply(context.Background(), "u1", "c1", plan); !errors.Is(err, ErrAlreadyRewarded) {
		t.Fatalf("second apply err=%v want ErrAlreadyRewarded", err)
	}
	uc, _ := ledger.Get(context.Background(), "u1")
	if uc.Balance != 50 {
		t.Fatalf("balance=%d after rejected replay", uc.Balance)
	}
}

func TestLedgerApplyPlanErrorRollsBack(t *testing.T) {
	gdb := dbtest.Open(t)
	ledger := NewLedgerRepository(gdb)
	contribs := NewContributionRepository(gdb)
	seedContribution(t, contribs, "c1", "u1", "1000", model.ContributionStatusApproved)

	boom := errors.New("boom")
	_, _, err := ledger.Apply(context.Background(), "u1", "c1", func(model.UserCoins) (LedgerUpdate, error) {
		return LedgerUpdate{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	c, err := contribs.FindByID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.RewardedAt != nil {
		t.Fatalf("rewarded_at set after rollback")
	}
}

// seedBonus credits coins to uid through a one-off unlock.
func seedBonus(t *testing.T, achievements AchievementRepository, uid, achievementID string, coins int64) {
	t.Helper()
	if _, err := achievements.UnlockWithBonus(context.Background(), uid, achievementID, coins, time.Now()); err != nil {
		t.Fatalf("bonus %s/%s: %v", uid, achievementID, err)
	}
}

func TestLedgerBonusConcurrent(t *testing.T) {
	gdb := dbtest.Open(t)
	repo := NewLedgerRepository(gdb)
	achievements := NewAchievementRepository(gdb)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := achievements.UnlockWithBonus(context.Background(), "u1", fmt.Sprintf("a%d", i), 5, time.Now()); err != nil {
				t.Errorf("unlock: %v", err)
			}
		}(i)
	}
	wg.Wait()
	uc, err := repo.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if uc.Balance != 50 || uc.TotalEarned != 50 {
		t.Fatalf("balance=%d total=%d want 50", uc.Balance, uc.TotalEarned)
	}
}

func TestLedgerTopAndCountAhead(t *testing.T) {
	gdb := dbtest.Open(t)
	repo := NewLedgerRepository(gdb)
	achievements := NewAchievementRepository(gdb)
	ctx := context.Background()
	for uid, coins := range map[string]int64{"a": 30, "b": 50, "c": 30, "d": 10} {
		seedBonus(t, achievements, uid, "seed", coins)
	}
	top, err := repo.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	got := []string{top[0].UID, top[1].UID, top[2].UID}
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v want=%v", got, want)
		}
	}
	ahead, err := repo.CountAhead(ctx, 30)
	if err != nil {
		t.Fatalf("count ahead: %v", err)
	}
	if ahead != 1 {
		t.Fatalf("ahead=%d want 1", ahead)
	}
	totals, err := repo.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if len(totals) != 4 || totals["b"] != 50 {
		t.Fatalf("totals=%v", totals)
	}
}
