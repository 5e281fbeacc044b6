package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trfife/BarnabeeNet-sub002/internal/snapshot"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage database snapshots in object storage",
		Long: "Upload a consistent snapshot of the database to the configured " +
			"object store. --list shows stored snapshots, --download fetches one, " +
			"--prune keeps only the newest N.",
		Run: runSnapshot,
	}

	cmd.Flags().Bool("list", false, "List stored snapshots")
	cmd.Flags().String("download", "", "Download a snapshot by object name")
	cmd.Flags().String("out", "", "Destination path for --download (default: the object name)")
	cmd.Flags().Int("prune", 0, "Keep only the newest N snapshots")

	RootCmd.AddCommand(cmd)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	list, _ := cmd.Flags().GetBool("list")
	download, _ := cmd.Flags().GetString("download")
	out, _ := cmd.Flags().GetString("out")
	prune, _ := cmd.Flags().GetInt("prune")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	st, err := store.Open(cfg.Store.Path, cfg.Embedder.Dimensions)
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	snaps, err := snapshot.NewManager(cfg.Snapshot, st)
	if err != nil {
		exitErr("snapshot", err)
	}
	ctx := cmd.Context()
	if err := snaps.Init(ctx); err != nil {
		exitErr("snapshot bucket", err)
	}

	switch {
	case list:
		infos, err := snaps.List(ctx)
		if err != nil {
			exitErr("list snapshots", err)
		}
		if jsonFlag {
			printJSON(infos)
			return
		}
		if len(infos) == 0 {
			fmt.Println("no snapshots")
			return
		}
		for _, info := range infos {
			fmt.Printf("%s  %d bytes  %s\n", info.Name, info.Size, info.ModTime.Format("2006-01-02 15:04:05"))
		}

	case download != "":
		data, err := snaps.Download(ctx, download)
		if err != nil {
			exitErr("download snapshot", err)
		}
		if out == "" {
			out = download
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			exitErr("write snapshot", err)
		}
		fmt.Printf("downloaded %s to %s (%d bytes)\n", download, out, len(data))

	case prune > 0:
		removed, err := snaps.Prune(ctx, prune)
		if err != nil {
			exitErr("prune snapshots", err)
		}
		fmt.Printf("pruned %d snapshots, kept the newest %d\n", removed, prune)

	default:
		name, err := snaps.Upload(ctx)
		if err != nil {
			exitErr("upload snapshot", err)
		}
		st.AppendLog(ctx, store.LogEntry{Event: store.EventSnapshot, Actor: "cli", Detail: name})
		fmt.Printf("uploaded %s\n", name)
	}
}
