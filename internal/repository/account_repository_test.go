package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/dbtest"
	"github.com/zeroup-initiative/partner-backend/internal/model"
)

func TestPurgeDetachesContributions(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	users := NewUserRepository(gdb)
	contribs := NewContributionRepository(gdb)
	ledger := NewLedgerRepository(gdb)
	achievements := NewAchievementRepository(gdb)
	notifications := NewNotificationRepository(gdb)
	accounts := NewAccountRepository(gdb)

	if err := users.Ensure(ctx, &model.User{UID: "u1", FullName: "Ada Obi"}); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	seedContribution(t, contribs, "c1", "u1", "1000", model.ContributionStatusApproved)
	seedContribution(t, contribs, "c2", "u2", "1000", model.ContributionStatusApproved)
	if _, err := ledger.Get(ctx, "u1"); err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if _, err := achievements.UnlockWithBonus(ctx, "u1", "first_contribution", 50, time.Now()); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := notifications.Create(ctx, &model.Notification{UserUID: "u1", Type: model.NotificationSystem}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	res, err := accounts.Purge(ctx, "u1", time.Now().UTC())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	want := PurgeResult{Notifications: 1, Achievements: 1, Ledger: 1, Contributions: 1, User: 1}
	if res != want {
		t.Fatalf("res=%+v want=%+v", res, want)
	}
	c, err := contribs.FindByID(ctx, "c1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !c.UserDeleted || c.UserFullName != "Ada Obi (Deleted)" || c.UserDeletedAt == nil {
		t.Fatalf("contribution not detached: %+v", c)
	}
	other, _ := contribs.FindByID(ctx, "c2")
	if other.UserDeleted {
		t.Fatalf("other user's contribution touched")
	}
	if _, err := users.Get(ctx, "u1"); err == nil {
		t.Fatalf("user still present")
	}
}

func TestPurgedContributionsCannotBeDecidedOrCredited(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	contribs := NewContributionRepository(gdb)
	ledger := NewLedgerRepository(gdb)
	accounts := NewAccountRepository(gdb)

	seedContribution(t, contribs, "pending", "u1", "1000", model.ContributionStatusPending)
	seedContribution(t, contribs, "approved", "u1", "1000", model.ContributionStatusApproved)
	if _, err := accounts.Purge(ctx, "u1", time.Now().UTC()); err != nil {
		t.Fatalf("purge: %v", err)
	}

	for _, status := range []model.ContributionStatus{model.ContributionStatusApproved, model.ContributionStatusDeclined} {
		n, err := contribs.Decide(ctx, "pending", status, nil, time.Now())
		if err != nil {
			t.Fatalf("decide %s: %v", status, err)
		}
		if n != 0 {
			t.Fatalf("decide %s affected %d rows", status, n)
		}
	}

	plan := func(model.UserCoins) (LedgerUpdate, error) {
		return LedgerUpdate{Coins: 10, Experience: 20, Level: 1, LastContributionDate: time.Now()}, nil
	}
	if _, _, err := ledger.Apply(ctx, "u1", "approved", plan); !errors.Is(err, ErrOwnerDeleted) {
		t.Fatalf("apply err=%v want ErrOwnerDeleted", err)
	}
	var rows int64
	if err := gdb.Model(&model.UserCoins{}).Where("uid = ?", "u1").Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 0 {
		t.Fatalf("ledger recreated for purged user")
	}
}
