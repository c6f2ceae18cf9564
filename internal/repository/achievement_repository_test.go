package repository

import (
	"context"
	"testing"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/dbtest"
)

func TestUnlockWithBonusIsIdempotent(t *testing.T) {
	gdb := dbtest.Open(t)
	achievements := NewAchievementRepository(gdb)
	ledger := NewLedgerRepository(gdb)
	ctx := context.Background()
	at := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	created, err := achievements.UnlockWithBonus(ctx, "u1", "first_contribution", 50, at)
	if err != nil || !created {
		t.Fatalf("first unlock created=%v err=%v", created, err)
	}
	created, err = achievements.UnlockWithBonus(ctx, "u1", "first_contribution", 50, at)
	if err != nil || created {
		t.Fatalf("second unlock created=%v err=%v", created, err)
	}
	uc, err := ledger.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get ledger: %v", err)
	}
	if uc.Balance != 50 || uc.TotalEarned != 50 {
		t.Fatalf("balance=%d total=%d want 50", uc.Balance, uc.TotalEarned)
	}
	list, err := achievements.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Notified {
		t.Fatalf("list=%+v", list)
	}
	if err := achievements.MarkNotified(ctx, "u1", "first_contribution"); err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	list, _ = achievements.ListByUser(ctx, "u1")
	if !list[0].Notified {
		t.Fatalf("notified flag not set")
	}
}

func TestUnlockIsPerUser(t *testing.T) {
	achievements := NewAchievementRepository(dbtest.Open(t))
	ctx := context.Background()
	at := time.Now()
	for _, uid := range []string{"u1", "u2"} {
		created, err := achievements.UnlockWithBonus(ctx, uid, "rising_star", 0, at)
		if err != nil || !created {
			t.Fatalf("%s created=%v err=%v", uid, created, err)
		}
	}
}
