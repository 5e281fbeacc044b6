package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store and host statistics",
		Run:   runStats,
	}

	cmd.Flags().Bool("no-host", false, "Skip host CPU, memory, and disk usage")

	RootCmd.AddCommand(cmd)
}

type hostStats struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemTotal    uint64  `json:"mem_total"`
	MemUsed     uint64  `json:"mem_used"`
	MemPercent  float64 `json:"mem_percent"`
	DiskPath    string  `json:"disk_path"`
	DiskFree    uint64  `json:"disk_free"`
	DiskPercent float64 `json:"disk_percent"`
}

type statsOutput struct {
	Store *store.Stats `json:"store"`
	Host  *hostStats   `json:"host,omitempty"`
}

func collectHostStats(dbPath string) *hostStats {
	hs := &hostStats{}

	cpuPercent, _ := cpu.Percent(time.Second, false)
	if len(cpuPercent) > 0 {
		hs.CPUPercent = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		hs.MemTotal = memInfo.Total
		hs.MemUsed = memInfo.Used
		hs.MemPercent = memInfo.UsedPercent
	}

	hs.DiskPath = filepath.Dir(dbPath)
	if diskInfo, err := disk.Usage(hs.DiskPath); err == nil {
		hs.DiskFree = diskInfo.Free
		hs.DiskPercent = diskInfo.UsedPercent
	}

	return hs
}

func runStats(cmd *cobra.Command, args []string) {
	noHost, _ := cmd.Flags().GetBool("no-host")

	a, closeApp, err := openApp()
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeApp()

	stats, err := a.engine.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	out := statsOutput{Store: stats}
	if !noHost {
		out.Host = collectHostStats(a.cfg.Store.Path)
	}

	if jsonFlag {
		printJSON(out)
		return
	}

	fmt.Printf("db: %s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
	fmt.Printf("active: %d  deleted: %d  embedded: %d  log entries: %d\n",
		stats.Active, stats.Deleted, stats.Embedded, stats.LogEntries)
	if len(stats.ByType) > 0 {
		fmt.Println("by type:")
		for _, tc := range stats.ByType {
			fmt.Printf("  %-12s %d\n", tc.Type, tc.Count)
		}
	}
	if out.Host != nil {
		fmt.Printf("cpu: %.1f%%  mem: %.1f%% of %d MB  disk %s: %.1f%% used, %d MB free\n",
			out.Host.CPUPercent,
			out.Host.MemPercent, out.Host.MemTotal/1024/1024,
			out.Host.DiskPath, out.Host.DiskPercent, out.Host.DiskFree/1024/1024)
	}
}
