package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "purge [id]",
		Short: "Permanently delete a soft-deleted memory",
		Long: "Remove a memory from the deleted tier for good, embedding included. " +
			"Irreversible. Requires --capability tier-admin.",
		Args: cobra.ExactArgs(1),
		Run:  runPurge,
	}

	cmd.Flags().String("actor", "admin", "Who is purging (for the log)")

	RootCmd.AddCommand(cmd)
}

func runPurge(cmd *cobra.Command, args []string) {
	actor, _ := cmd.Flags().GetString("actor")

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("purge", fmt.Errorf("invalid memory id %q", args[0]))
	}

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	if err := a.engine.HardDelete(cmd.Context(), id, actor); err != nil {
		exitErr("purge", err)
	}
	fmt.Printf("purged #%d permanently\n", id)
}
