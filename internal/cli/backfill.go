package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Embed memories that are missing vectors",
		Long:  "Sweep active memories without an embedding and index them. Safe to re-run; failures are retried next sweep.",
		Run:   runBackfill,
	}

	RootCmd.AddCommand(cmd)
}

func runBackfill(cmd *cobra.Command, args []string) {
	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	report, err := a.engine.Backfill(cmd.Context())
	if err != nil {
		exitErr("backfill", err)
	}

	if jsonFlag {
		printJSON(report)
		return
	}
	fmt.Printf("run %s: scanned %d, indexed %d, failed %d\n",
		report.RunID, report.Scanned, report.Indexed, report.Failed)
}
