package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeroup-initiative/partner-backend/internal/app"
)

func newApproveCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "approve CONTRIBUTION_ID",
		Short: "Approve a pending contribution and credit the partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				res, err := a.Contributions.Approve(ctx, args[0])
				if res == nil {
					return err
				}
				out := cmd.OutOrStdout()
				award := res.Award
				fmt.Fprintf(out, "Approved %s for %s\n", res.Contribution.ID, res.Contribution.UserUID)
				if award.AlreadyRewarded {
					fmt.Fprintln(out, "  already credited; achievements re-evaluated")
				}
				fmt.Fprintf(out, "  coins +%d  xp +%d  balance %d  level %d  streak %d\n",
					award.CoinsEarned, award.ExperienceEarned, award.Balance, award.Level, award.Streak)
				if award.LeveledUp {
					fmt.Fprintf(out, "  leveled up from %d\n", award.PreviousLevel)
				}
				for _, u := range award.Unlocked {
					fmt.Fprintf(out, "  unlocked %s (+%d)\n", u.ID, u.Points)
				}
				if !res.Notify.OK() {
					fmt.Fprintf(out, "  warning: notification failed: %v\n", res.Notify.Err)
				}
				return err
			})
		},
	}
}

func newDeclineCmd(open Opener) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "decline CONTRIBUTION_ID",
		Short: "Decline a pending contribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(reason) == "" {
				return fmt.Errorf("--reason is required")
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				res, err := a.Contributions.Decline(ctx, args[0], reason)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Declined %s for %s\n", res.Contribution.ID, res.Contribution.UserUID)
				fmt.Fprintf(out, "  risk: %s\n", describeTier(res.Risk))
				if !res.Notify.OK() {
					fmt.Fprintf(out, "  warning: notification failed: %v\n", res.Notify.Err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason shown to the partner")
	return cmd
}
