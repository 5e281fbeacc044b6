package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Hybrid search over memories",
		Long:  "Search memories by meaning and keywords, fused into one ranking.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("owner", "o", "", "Requesting user (required)")
	cmd.Flags().StringP("types", "t", "", "Comma-separated memory types to keep")
	cmd.Flags().IntP("limit", "l", 10, "Max results")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func parseTypes(csv string) ([]model.MemoryType, error) {
	if csv == "" {
		return nil, nil
	}
	var types []model.MemoryType
	for _, part := range strings.Split(csv, ",") {
		mt := model.MemoryType(strings.TrimSpace(part))
		if mt == "" {
			continue
		}
		if !mt.Valid() {
			return nil, fmt.Errorf("unknown memory type %q", mt)
		}
		types = append(types, mt)
	}
	return types, nil
}

func runSearch(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	typesCSV, _ := cmd.Flags().GetString("types")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	types, err := parseTypes(typesCSV)
	if err != nil {
		exitErr("search", err)
	}

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	resp, err := a.engine.Search(cmd.Context(), query, owner, types, limit)
	if err != nil {
		exitErr("search", err)
	}

	if jsonFlag {
		printJSON(resp)
		return
	}
	if resp.Degraded {
		fmt.Println("(embedding provider unavailable; text-only results)")
	}
	if len(resp.Results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, r := range resp.Results {
		fmt.Printf("#%d  %.3f  [%s]  %s\n", r.Memory.ID, r.Combined, r.Memory.MemoryType, r.Memory.Summary)
	}
}
