package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/app"
	"github.com/zeroup-initiative/partner-backend/internal/dbtest"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

func testOpener(t *testing.T) (Opener, *app.App) {
	t.Helper()
	a := app.New(app.Options{DB: dbtest.Open(t), Location: time.UTC})
	return func(context.Context) (*app.App, func(), error) {
		return a, func() {}, nil
	}, a
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func submit(t *testing.T, a *app.App, uid, amount string) string {
	t.Helper()
	c, err := a.Contributions.Submit(context.Background(), uid, service.SubmitInput{
		Amount:   decimal.RequireFromString(amount),
		FullName: "Ada",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return c.ID
}

func TestApproveCommand(t *testing.T) {
	open, a := testOpener(t)
	id := submit(t, a, "u1", "5000")

	out, err := run(t, open, "approve", id)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	for _, want := range []string{"Approved " + id, "coins +50", "unlocked first_contribution (+50)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	out, err = run(t, open, "approve", id)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if !strings.Contains(out, "already credited") || !strings.Contains(out, "balance 100") {
		t.Fatalf("second approve output=%q", out)
	}

	declined := submit(t, a, "u1", "1000")
	if _, err := run(t, open, "decline", declined, "--reason", "no receipt"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, err := run(t, open, "approve", declined); err == nil {
		t.Fatalf("approving a declined contribution should fail")
	}
}

func TestDeclineAndRiskCommands(t *testing.T) {
	open, a := testOpener(t)
	if _, err := run(t, open, "decline", "missing"); err == nil || !strings.Contains(err.Error(), "--reason") {
		t.Fatalf("decline without reason err=%v", err)
	}
	for i := 0; i < 3; i++ {
		id := submit(t, a, "u1", "1000")
		if _, err := run(t, open, "decline", id, "--reason", "no receipt"); err != nil {
			t.Fatalf("decline: %v", err)
		}
	}
	out, err := run(t, open, "risk", "u1")
	if err != nil {
		t.Fatalf("risk: %v", err)
	}
	if !strings.Contains(out, "flagged (3 declined)") {
		t.Fatalf("risk output=%q", out)
	}
}

func TestPurgeRequiresConfirmation(t *testing.T) {
	open, a := testOpener(t)
	id := submit(t, a, "u1", "2000")
	if _, err := run(t, open, "approve", id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := run(t, open, "purge-user", "u1"); err == nil {
		t.Fatalf("purge without --yes should fail")
	}
	out, err := run(t, open, "purge-user", "u1", "--yes")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if !strings.Contains(out, "1 contributions redacted") {
		t.Fatalf("purge output=%q", out)
	}
}

func TestMaintenanceCommands(t *testing.T) {
	open, a := testOpener(t)
	id := submit(t, a, "u1", "5000")
	if _, err := run(t, open, "approve", id); err != nil {
		t.Fatalf("approve: %v", err)
	}

	out, err := run(t, open, "leaderboard", "rebuild")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if !strings.Contains(out, "0 partners") {
		t.Fatalf("rebuild without redis output=%q", out)
	}

	out, err = run(t, open, "achievements", "evaluate", "u1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !strings.Contains(out, "Nothing new") {
		t.Fatalf("evaluate output=%q", out)
	}
}
