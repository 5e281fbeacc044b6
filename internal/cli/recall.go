package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Retrieve memories for assistant context",
		Long: "Fetch the memories an assistant turn would see for this query. " +
			"Mechanical intents (timer, clock, alarm) return nothing.",
		Args: cobra.MinimumNArgs(1),
		Run:  runRecall,
	}

	cmd.Flags().StringP("owner", "o", "", "Requesting user (required)")
	cmd.Flags().String("intent", "chat", "Detected intent of the turn")
	cmd.Flags().IntP("limit", "l", 0, "Max memories (0 uses the configured context limit)")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	intent, _ := cmd.Flags().GetString("intent")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	resp, err := a.engine.RetrieveForContext(cmd.Context(), query, intent, owner, limit)
	if err != nil {
		exitErr("recall", err)
	}

	if jsonFlag {
		printJSON(resp)
		return
	}
	if len(resp.Results) == 0 {
		fmt.Println("no context")
		return
	}
	for _, r := range resp.Results {
		fmt.Printf("#%d  %.3f  [%s]  %s\n", r.Memory.ID, r.Combined, r.Memory.MemoryType, r.Memory.Summary)
	}
}
