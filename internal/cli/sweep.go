package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
	"github.com/trfife/BarnabeeNet-sub002/internal/maintain"
	"github.com/trfife/BarnabeeNet-sub002/internal/snapshot"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run maintenance jobs",
		Long: "Run the maintenance jobs (embedding backfill, op-log purge, snapshot " +
			"upload when configured) once, or keep them on their cron schedules with --watch.",
		Run: runSweep,
	}

	cmd.Flags().Bool("watch", false, "Stay running and fire jobs on their configured schedules")

	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	watch, _ := cmd.Flags().GetBool("watch")

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	backfillJob := func(ctx context.Context) error {
		_, err := a.engine.Backfill(ctx)
		return err
	}
	purgeJob := func(ctx context.Context) error {
		_, err := a.engine.PurgeOpLog(ctx)
		return err
	}

	var snapshotJob maintain.JobFunc
	if a.cfg.Snapshot.Endpoint != "" {
		snaps, err := snapshot.NewManager(a.cfg.Snapshot, a.store)
		if err != nil {
			exitErr("snapshot manager", err)
		}
		initCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		err = snaps.Init(initCtx)
		cancel()
		if err != nil {
			exitErr("snapshot bucket", err)
		}
		snapshotJob = func(ctx context.Context) error {
			name, err := snaps.Upload(ctx)
			if err != nil {
				return err
			}
			a.store.AppendLog(ctx, store.LogEntry{Event: store.EventSnapshot, Actor: "sweeper", Detail: name})
			return nil
		}
	}

	if !watch {
		runOnce(cmd.Context(), a, snapshotJob)
		return
	}

	sweeper, err := maintain.NewSweeper(a.cfg.Maintenance, backfillJob, purgeJob, snapshotJob)
	if err != nil {
		exitErr("sweep", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go sweeper.Run(ctx)
	fmt.Printf("sweeping on schedule: %v\n", sweeper.Jobs())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
}

func runOnce(ctx context.Context, a *app, snapshotJob maintain.JobFunc) {
	report, err := a.engine.Backfill(ctx)
	if err != nil {
		exitErr("backfill", err)
	}
	fmt.Printf("backfill: scanned %d, indexed %d, failed %d\n", report.Scanned, report.Indexed, report.Failed)

	purged, err := a.engine.PurgeOpLog(ctx)
	if err != nil {
		exitErr("purge", err)
	}
	fmt.Printf("op-log purge: %d entries removed\n", purged)

	if snapshotJob == nil {
		return
	}
	if err := snapshotJob(ctx); err != nil {
		exitErr("snapshot", err)
	}
	fmt.Println("snapshot uploaded")
}
