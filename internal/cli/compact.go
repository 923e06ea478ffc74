package cli

import (
	"fmt"

	"github.com/engram-oss/engram/internal/memory"
	"github.com/spf13/cobra"
)

var (
	compactOwner string
	compactForce bool
	compactJSON  bool
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Evict stale, duplicate, and low-value memories",
	Long: `Run the compaction policy over the store.

By default only the triggers whose conditions hold actually run. With
--force every action runs regardless of thresholds.`,
	RunE: runCompact,
}

func init() {
	compactCmd.Flags().StringVarP(&compactOwner, "owner", "o", "", "compact one owner scope only")
	compactCmd.Flags().BoolVarP(&compactForce, "force", "f", false, "run every compaction action unconditionally")
	compactCmd.Flags().BoolVar(&compactJSON, "json", false, "print the report as JSON")
}

func runCompact(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	var report *memory.CompactionReport
	if compactForce {
		report, err = rt.manager.ForceCompact(compactOwner)
	} else {
		report, err = rt.manager.CompactIfNeeded(compactOwner)
	}
	if err != nil {
		return err
	}

	if compactJSON {
		return printJSON(report)
	}

	if report.TotalCompacted == 0 {
		fmt.Println("Nothing to compact.")
		return nil
	}

	scope := ""
	if report.Owner != "" {
		scope = fmt.Sprintf(" (owner: %s)", report.Owner)
	}
	fmt.Printf("Compacted %d memories%s\n", report.TotalCompacted, scope)
	for _, tr := range report.Triggered {
		fmt.Printf("  %-12s removed %d (%d -> %d)\n", tr.Trigger+":", tr.RemovedCount, tr.BeforeCount, tr.AfterCount)
	}
	return nil
}
