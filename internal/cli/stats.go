package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store, engine, and usage statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print statistics as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.manager.Stats()
	if err != nil {
		return err
	}

	if statsJSON {
		return printJSON(stats)
	}

	for _, section := range []string{"store", "engine", "metrics"} {
		values, ok := stats[section].(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Printf("%s:\n", section)
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-18s %v\n", k+":", values[k])
		}
		fmt.Println()
	}

	if rt.manager.Healthy() {
		fmt.Println("Status: healthy")
	} else {
		fmt.Println("Status: degraded")
	}
	return nil
}
