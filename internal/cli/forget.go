package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trfife/BarnabeeNet-sub002/internal/deletion"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget [reference]",
		Short: "Resolve a deletion request",
		Long: "Resolve a spoken deletion reference. Back-references with a --hint " +
			"delete directly; anything else returns candidates to confirm.",
		Args: cobra.MinimumNArgs(1),
		Run:  runForget,
	}

	cmd.Flags().StringP("owner", "o", "", "Requesting user (required)")
	cmd.Flags().Int64("hint", 0, "Memory id the reference points at (for back-references)")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	hint, _ := cmd.Flags().GetInt64("hint")
	reference := strings.Join(args, " ")

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	res, err := a.engine.RequestDelete(cmd.Context(), reference, owner, hint)
	if err != nil {
		exitErr("forget", err)
	}

	if jsonFlag {
		printJSON(res)
		return
	}

	switch res.Outcome {
	case deletion.OutcomeDeleted:
		fmt.Printf("deleted #%d %s\n", res.Deleted.ID, res.Deleted.Summary)
	case deletion.OutcomeAwaitingConfirmation:
		c := res.Candidates[0]
		fmt.Printf("found one match: #%d [%s] %s\n", c.ID, c.MemoryType, c.Summary)
		fmt.Printf("confirm with: barnabee-memory confirm %d --owner %s\n", c.ID, owner)
	case deletion.OutcomeCandidates:
		fmt.Printf("found %d matches:\n", len(res.Candidates))
		for i, c := range res.Candidates {
			fmt.Printf("%d. #%d [%s] %s\n", i+1, c.ID, c.MemoryType, c.Summary)
		}
		fmt.Println("confirm one with: barnabee-memory confirm <id> --owner " + owner)
	case deletion.OutcomeDisambiguationNeeded:
		fmt.Println("the reference points at recent conversation; pass --hint with the memory id")
	case deletion.OutcomeNoMatch:
		fmt.Println("nothing matches that description")
	}
}
