package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listOwner  string
	listLimit  int
	listOffset int
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memories, newest first",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOwner, "owner", "o", "", "restrict to one owner scope")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum results (0 for all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "skip this many records")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print records as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	recs, err := rt.manager.List(listOwner, listLimit, listOffset)
	if err != nil {
		return err
	}

	if listJSON {
		return printRecordsJSON(recs)
	}
	if len(recs) == 0 {
		fmt.Println("No memories stored.")
		return nil
	}
	printRecordList(recs)

	total, err := rt.manager.Count(listOwner)
	if err == nil && total > len(recs) {
		fmt.Printf("\n%d of %d memories shown\n", len(recs), total)
	}
	return nil
}
