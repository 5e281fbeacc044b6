package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "restore [id]",
		Short: "Restore a soft-deleted memory",
		Long:  "Move a memory from the deleted tier back to active. Requires --capability tier-admin.",
		Args:  cobra.ExactArgs(1),
		Run:   runRestore,
	}

	cmd.Flags().String("actor", "admin", "Who is restoring (for the log)")

	RootCmd.AddCommand(cmd)
}

func runRestore(cmd *cobra.Command, args []string) {
	actor, _ := cmd.Flags().GetString("actor")

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("restore", fmt.Errorf("invalid memory id %q", args[0]))
	}

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	if err := a.engine.Restore(cmd.Context(), id, actor); err != nil {
		exitErr("restore", err)
	}
	fmt.Printf("restored #%d\n", id)
}
