package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/app"
	"github.com/zeroup-initiative/partner-backend/internal/config"
	"github.com/zeroup-initiative/partner-backend/internal/db"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"github.com/zeroup-initiative/partner-backend/internal/service"
	"gorm.io/gorm"
)

type seedPartner struct {
	UID      string
	FullName string
	Email    string
	// Contributions are amounts in Naira, oldest first; a negative amount is
	// submitted as its absolute value and declined.
	Contributions []int64
}

var projects = []string{"Clean Water Borehole", "School Desks Drive", "Solar Street Lights", ""}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("contributions already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	a := app.New(app.Options{DB: gdb, Location: cfg.Location()})
	partners := buildSeedPartners()
	total := 0
	for _, p := range partners {
		n, err := seedPartnerHistory(ctx, a, p)
		if err != nil {
			return err
		}
		total += n
	}
	log.Printf("seeded %d contributions for %d partners", total, len(partners))
	return nil
}

func buildSeedPartners() []seedPartner {
	return []seedPartner{
		{UID: "demo-adaeze", FullName: "Adaeze Okafor", Email: "adaeze@example.com", Contributions: []int64{5000, 12000, 7500, 20000, 15000, 3000}},
		{UID: "demo-tunde", FullName: "Tunde Bakare", Email: "tunde@example.com", Contributions: []int64{25000, -4000, 60000}},
		{UID: "demo-ngozi", FullName: "Ngozi Eze", Email: "ngozi@example.com", Contributions: []int64{1000, -2500, -2500, 1500}},
	}
}

// seedPartnerHistory submits and decides each contribution in order, one
// month apart, ending this month.
func seedPartnerHistory(ctx context.Context, a *app.App, p seedPartner) (int, error) {
	start := time.Now().AddDate(0, -(len(p.Contributions) - 1), 0)
	for i, amount := range p.Contributions {
		declined := amount < 0
		if declined {
			amount = -amount
		}
		c, err := a.Contributions.Submit(ctx, p.UID, service.SubmitInput{
			Amount:      decimal.NewFromInt(amount),
			Date:        start.AddDate(0, i, 0),
			Description: fmt.Sprintf("Monthly pledge %d", i+1),
			ProofRef:    fmt.Sprintf("proofs/%s/%d.jpg", p.UID, i+1),
			ProjectName: projects[i%len(projects)],
			FullName:    p.FullName,
			Email:       p.Email,
		})
		if err != nil {
			return i, fmt.Errorf("submit %s #%d: %w", p.UID, i+1, err)
		}
		if declined {
			if _, err := a.Contributions.Decline(ctx, c.ID, "Proof of payment could not be verified"); err != nil {
				return i, fmt.Errorf("decline %s: %w", c.ID, err)
			}
			continue
		}
		if _, err := a.Contributions.Approve(ctx, c.ID); err != nil {
			return i, fmt.Errorf("approve %s: %w", c.ID, err)
		}
	}
	return len(p.Contributions), nil
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Contribution{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count contributions: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	force := os.Getenv("FORCE_SEED")
	return strings.EqualFold(force, "true"), nil
}
