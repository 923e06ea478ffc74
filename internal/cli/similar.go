package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	similarLimit     int
	similarThreshold float64
	similarJSON      bool
)

var similarCmd = &cobra.Command{
	Use:   "similar <id>",
	Short: "Find memories similar to an existing one",
	Long:  "Find memories semantically close to the given one, within the same owner scope.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 10, "maximum results")
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0, "minimum cosine similarity (0 disables the floor)")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "print records as JSON")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	recs, err := rt.manager.FindSimilar(args[0], similarLimit, similarThreshold)
	if err != nil {
		return err
	}

	if similarJSON {
		return printRecordsJSON(recs)
	}
	if len(recs) == 0 {
		fmt.Println("No similar memories found.")
		return nil
	}
	printRecordList(recs)
	return nil
}
