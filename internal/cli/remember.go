package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trfife/BarnabeeNet-sub002/internal/engine"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin.",
		Run:   runRemember,
	}

	cmd.Flags().StringP("owner", "o", "", "Owning user (required)")
	cmd.Flags().String("summary", "", "One-line summary (derived from content when omitted)")
	cmd.Flags().String("visibility", "private", "Visibility: private, family, all")
	cmd.Flags().String("source", "explicit", "Source type: explicit, extracted, meeting, journal, migration")
	cmd.Flags().String("source-id", "", "Originating conversation or document id")

	cmd.MarkFlagRequired("owner")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	owner, _ := cmd.Flags().GetString("owner")
	summary, _ := cmd.Flags().GetString("summary")
	visibility, _ := cmd.Flags().GetString("visibility")
	source, _ := cmd.Flags().GetString("source")
	sourceID, _ := cmd.Flags().GetString("source-id")

	content := strings.TrimSpace(readContent(args))
	if content == "" {
		exitErr("remember", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	m, err := a.engine.Remember(cmd.Context(), engine.RememberParams{
		Content:    content,
		Summary:    summary,
		Owner:      owner,
		Visibility: model.Visibility(visibility),
		SourceType: model.SourceType(source),
		SourceID:   sourceID,
	})
	if err != nil {
		exitErr("remember", err)
	}

	if jsonFlag {
		printJSON(m)
		return
	}
	fmt.Printf("remembered #%d [%s] %s\n", m.ID, m.MemoryType, m.Summary)
}
