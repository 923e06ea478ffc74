package cli

import (
	"fmt"

	"github.com/engram-oss/engram/internal/memory"
	"github.com/spf13/cobra"
)

var (
	tagsOwner string
	tagsLimit int
	tagsJSON  bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags <tag>...",
	Short: "Find memories by tag",
	Long:  "Find memories carrying any of the given tags, ranked by how many match.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTags,
}

func init() {
	tagsCmd.Flags().StringVarP(&tagsOwner, "owner", "o", "", "restrict to one owner scope")
	tagsCmd.Flags().IntVarP(&tagsLimit, "limit", "n", 10, "maximum results")
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "print records as JSON")
}

func runTags(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	recs, err := rt.manager.SearchByTags(args, memory.SearchOptions{
		Owner: tagsOwner,
		Limit: tagsLimit,
	})
	if err != nil {
		return err
	}

	if tagsJSON {
		return printRecordsJSON(recs)
	}
	if len(recs) == 0 {
		fmt.Println("No memories found.")
		return nil
	}
	printRecordList(recs)
	return nil
}
