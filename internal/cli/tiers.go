package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tiers [query]",
		Short: "Search across memory tiers",
		Long: "Substring search over active memories, deleted memories, and the " +
			"operational log. Requires --capability tier-admin.",
		Args: cobra.MinimumNArgs(1),
		Run:  runTiers,
	}

	cmd.Flags().Bool("deleted", false, "Search only the deleted tier")
	cmd.Flags().IntP("limit", "l", 20, "Max results per tier")

	RootCmd.AddCommand(cmd)
}

func runTiers(cmd *cobra.Command, args []string) {
	deletedOnly, _ := cmd.Flags().GetBool("deleted")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	if deletedOnly {
		found, err := a.engine.SearchDeleted(cmd.Context(), query, limit)
		if err != nil {
			exitErr("tiers", err)
		}
		if jsonFlag {
			printJSON(found)
			return
		}
		if len(found) == 0 {
			fmt.Println("no deleted matches")
			return
		}
		for _, m := range found {
			fmt.Printf("#%d  [%s]  %s  (deleted by %s)\n", m.ID, m.MemoryType, m.Summary, m.DeletedBy)
		}
		return
	}

	results, err := a.engine.SearchAllTiers(cmd.Context(), query, limit)
	if err != nil {
		exitErr("tiers", err)
	}
	if jsonFlag {
		printJSON(results)
		return
	}

	fmt.Printf("active (%d):\n", len(results.Active))
	for _, m := range results.Active {
		fmt.Printf("  #%d  [%s]  %s\n", m.ID, m.MemoryType, m.Summary)
	}
	fmt.Printf("deleted (%d):\n", len(results.Deleted))
	for _, m := range results.Deleted {
		fmt.Printf("  #%d  [%s]  %s\n", m.ID, m.MemoryType, m.Summary)
	}
	fmt.Printf("log (%d):\n", len(results.Log))
	for _, e := range results.Log {
		fmt.Printf("  %s  %s  memory=%d  %s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Event, e.MemoryID, e.Detail)
	}
}
