package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeroup-initiative/partner-backend/internal/app"
)

func newPurgeUserCmd(open Opener) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge-user UID",
		Short: "Delete a partner's account and redact their contributions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge %s without --yes", args[0])
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				res, err := a.Accounts.Purge(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %s: %d notifications, %d achievements, %d ledger, %d contributions redacted\n",
					args[0], res.Notifications, res.Achievements, res.Ledger, res.Contributions)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func newLeaderboardCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Leaderboard maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the leaderboard from the ledger table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				n, err := a.Leaderboard.Rebuild(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt leaderboard with %d partners\n", n)
				return nil
			})
		},
	})
	return cmd
}

func newAchievementsCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Achievement maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "evaluate UID",
		Short: "Unlock earned achievements and send pending badge notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				award, notified, err := a.Contributions.SettleAchievements(ctx, args[0])
				if award == nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(award.Unlocked) == 0 {
					fmt.Fprintln(out, "Nothing new")
				}
				for _, u := range award.Unlocked {
					fmt.Fprintf(out, "Unlocked %s (+%d)\n", u.ID, u.Points)
				}
				if !notified.OK() {
					fmt.Fprintf(out, "warning: notification failed: %v\n", notified.Err)
				}
				return err
			})
		},
	})
	return cmd
}
