package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/requestdesk/intake-backend/config"
	"github.com/requestdesk/intake-backend/internal/bootstrap"
	"github.com/requestdesk/intake-backend/internal/logging"
	"github.com/requestdesk/intake-backend/internal/maintenance"
)

func main() {
	root := &cobra.Command{
		Use:          "worker",
		Short:        "Maintenance jobs for the intake backend",
		SilenceUsage: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run prune and warm jobs on their cron schedules",
			RunE:  withApp(runScheduler),
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Trim classification history once and exit",
			RunE: withApp(func(ctx context.Context, cfg *config.Config, app *bootstrap.App) error {
				return maintenance.NewScheduler(app.Projects, app.Sync).Prune(ctx)
			}),
		},
		&cobra.Command{
			Use:   "warm",
			Short: "Sync projects from ClickUp once, wait for classification and exit",
			RunE: withApp(func(ctx context.Context, cfg *config.Config, app *bootstrap.App) error {
				return maintenance.NewScheduler(app.Projects, app.Sync).Warm(ctx)
			}),
		},
		&cobra.Command{
			Use:   "init-db",
			Short: "Create or migrate the database schema",
			RunE: withApp(func(ctx context.Context, cfg *config.Config, app *bootstrap.App) error {
				if err := app.Projects.EnsureSchema(ctx); err != nil {
					return err
				}
				slog.Info("database schema ready")
				return nil
			}),
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type appCommand func(ctx context.Context, cfg *config.Config, app *bootstrap.App) error

func withApp(run appCommand) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.App.LogLevel, cfg.App.Environment)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.NewApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := run(ctx, cfg, app); err != nil {
			slog.Error("worker command failed", slog.String("command", cmd.Name()), slog.Any("error", err))
			return err
		}
		return nil
	}
}

func runScheduler(ctx context.Context, cfg *config.Config, app *bootstrap.App) error {
	s := maintenance.NewScheduler(app.Projects, app.Sync)
	if err := s.Start(cfg.Worker.PruneSchedule, cfg.Worker.WarmSchedule); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("worker shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Stop(stopCtx)
	return nil
}
