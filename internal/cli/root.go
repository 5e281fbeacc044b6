// Package cli implements the barnabee-memory admin commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/embedder"
	"github.com/trfife/BarnabeeNet-sub002/internal/engine"
	"github.com/trfife/BarnabeeNet-sub002/internal/llm"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

var (
	dbPath         string
	jsonFlag       bool
	capabilityFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "barnabee-memory",
	Short: "Memory engine for the BarnabeeNet assistant",
	Long: "Store, retrieve, and manage assistant memories: hybrid search, " +
		"progressive narrowing, confirmation-gated deletion, tier administration.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $BARNABEE_MEMORY_DB or barnabee-memory.db)")
	RootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "JSON output")
	RootCmd.PersistentFlags().StringVar(&capabilityFlag, "capability", "", "Capability grant for tier operations (or $BARNABEE_CAPABILITY)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg, nil
}

func capability() model.Capability {
	grant := capabilityFlag
	if grant == "" {
		grant = os.Getenv("BARNABEE_CAPABILITY")
	}
	if grant == "tier-admin" {
		return model.TierAdmin()
	}
	return model.Capability{}
}

// app bundles the wired service with the handles some commands need directly.
type app struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Service
}

func openApp() (*app, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Store.Path, cfg.Embedder.Dimensions)
	if err != nil {
		return nil, nil, err
	}
	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	client, err := llm.New(cfg.LLM)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	a := &app{
		cfg:    cfg,
		store:  st,
		engine: engine.New(cfg, st, emb, client, capability()),
	}
	return a, func() { st.Close() }, nil
}

// readContent joins the positional args, falling back to stdin when piped.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
