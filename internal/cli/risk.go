package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeroup-initiative/partner-backend/internal/app"
	"github.com/zeroup-initiative/partner-backend/internal/risk"
)

func newRiskCmd(open Opener) *cobra.Command {
	var recompute bool
	cmd := &cobra.Command{
		Use:   "risk UID",
		Short: "Show a partner's risk tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				var (
					tier risk.Tier
					err  error
				)
				if recompute {
					tier, err = a.Risk.Recompute(ctx, args[0])
				} else {
					tier, err = a.Risk.Get(ctx, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], describeTier(tier))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&recompute, "recompute", false, "recount declined contributions before printing")
	return cmd
}

func describeTier(t risk.Tier) string {
	state := "ok"
	switch {
	case t.Suspended:
		state = "suspended"
	case t.Flagged:
		state = "flagged"
	}
	return fmt.Sprintf("%s (%d declined)", state, t.DeclinedCount)
}
