// Package cli implements zeroupctl, the reviewer and operator command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeroup-initiative/partner-backend/internal/app"
	"github.com/zeroup-initiative/partner-backend/internal/cache"
	"github.com/zeroup-initiative/partner-backend/internal/config"
	"github.com/zeroup-initiative/partner-backend/internal/db"
	appmw "github.com/zeroup-initiative/partner-backend/internal/middleware"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

// Opener builds the service graph for one command run. The returned func
// releases connections.
type Opener func(ctx context.Context) (*app.App, func(), error)

// NewRootCmd assembles zeroupctl. open is called lazily by each subcommand.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "zeroupctl",
		Short: "Operate the ZeroUp partner rewards backend",
		Long: `zeroupctl records reviewer outcomes and runs maintenance against the
same database and Redis the API server uses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newApproveCmd(open),
		newDeclineCmd(open),
		newRiskCmd(open),
		newPurgeUserCmd(open),
		newLeaderboardCmd(open),
		newAchievementsCmd(open),
	)
	return root
}

// Execute runs zeroupctl against the configured environment.
func Execute(version string) {
	root := NewRootCmd(OpenFromEnv)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// OpenFromEnv connects using the same variables as the API server.
func OpenFromEnv(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	rdb, err := cache.NewRedis(ctx, cfg)
	closeFn := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	var deleter service.AuthUserDeleter
	if cfg.FirebaseProjectID != "" {
		client, err := appmw.NewAuthClient(ctx, cfg)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("firebase auth: %w", err)
		}
		deleter = client
	}
	a := app.New(app.Options{
		DB:          conn,
		Redis:       rdb,
		AuthDeleter: deleter,
		Location:    cfg.Location(),
	})
	return a, closeFn, nil
}

// withApp opens the graph around fn.
func withApp(cmd *cobra.Command, open Opener, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, a)
}
