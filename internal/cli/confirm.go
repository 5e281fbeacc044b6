package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "confirm [id]",
		Short: "Confirm a pending deletion",
		Args:  cobra.ExactArgs(1),
		Run:   runConfirm,
	}

	cmd.Flags().StringP("owner", "o", "", "Confirming user (required)")
	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runConfirm(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitErr("confirm", fmt.Errorf("invalid memory id %q", args[0]))
	}

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	m, err := a.engine.ConfirmDelete(cmd.Context(), id, owner)
	if err != nil {
		exitErr("confirm", err)
	}

	if jsonFlag {
		printJSON(m)
		return
	}
	fmt.Printf("deleted #%d %s\n", m.ID, m.Summary)
}
