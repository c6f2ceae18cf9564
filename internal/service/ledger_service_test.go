package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSnapshotRankFromLedgerTable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for uid, amount := range map[string]int64{"a": 1000, "b": 30000, "c": 5000} {
		if _, err := h.awards.AwardForApprovedContribution(ctx, uid, decimal.NewFromInt(amount)); err != nil {
			t.Fatalf("award %s: %v", uid, err)
		}
	}
	snap, err := h.ledger.Snapshot(ctx, "c")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Rank != 2 || snap.Balance != 50 || snap.Progress.CurrentXP != 50 || snap.ProgressPct != 50 {
		t.Fatalf("snap=%+v", snap)
	}
	top, err := h.board.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UID != "b" || top[1].UID != "c" {
		t.Fatalf("top=%+v", top)
	}
}

func TestLedgerSubscribeSeesAward(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var mu sync.Mutex
	var balance int64 = -1
	cancel := h.ledger.Subscribe(ctx, "u1", func(s *LedgerSnapshot, err error) {
		if err != nil {
			t.Errorf("err: %v", err)
			return
		}
		mu.Lock()
		balance = s.Balance
		mu.Unlock()
	})
	defer cancel()
	get := func() int64 {
		mu.Lock()
		defer mu.Unlock()
		return balance
	}
	waitFor(t, func() bool { return get() == 0 })
	if _, err := h.awards.AwardForApprovedContribution(ctx, "u1", decimal.NewFromInt(2000)); err != nil {
		t.Fatalf("award: %v", err)
	}
	waitFor(t, func() bool { return get() == 20 })
}

func TestSnapshotProgressFollowsStoredLevel(t *testing.T) {
	h := newHarness(t)
	// 50 coins from the contribution plus the 50-point first_contribution
	// bonus reach the level 2 threshold without a new award.
	submitAndApprove(t, h, "u1", "5000")
	snap, err := h.ledger.Snapshot(context.Background(), "u1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TotalEarned != 100 || snap.Level != 1 {
		t.Fatalf("total=%d level=%d", snap.TotalEarned, snap.Level)
	}
	if snap.Progress.Level != snap.Level || snap.Progress.XPToNext != snap.ExperienceToNextLevel {
		t.Fatalf("progress=%+v disagrees with level=%d xpToNext=%d", snap.Progress, snap.Level, snap.ExperienceToNextLevel)
	}
	if snap.Progress.CurrentXP != 100 || snap.ProgressPct != 100 {
		t.Fatalf("progress=%+v pct=%v", snap.Progress, snap.ProgressPct)
	}
}
