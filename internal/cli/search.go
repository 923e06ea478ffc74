package cli

import (
	"fmt"
	"strings"

	"github.com/engram-oss/engram/internal/memory"
	"github.com/spf13/cobra"
)

var (
	searchOwner     string
	searchLimit     int
	searchThreshold float64
	searchTextOnly  bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memories by meaning",
	Long: `Search memories by semantic similarity to the query. With --text the
query is matched against content and tags as a substring instead.

Examples:
  engram search "how do we deploy the gateway"
  engram search --owner alice --limit 5 --threshold 0.4 "database credentials"
  engram search --text "blue/green"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchOwner, "owner", "o", "", "restrict to one owner scope")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum cosine similarity (0 disables the floor)")
	searchCmd.Flags().BoolVar(&searchTextOnly, "text", false, "substring match instead of semantic search")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print records as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	query := strings.Join(args, " ")
	opts := memory.SearchOptions{
		Owner:     searchOwner,
		Limit:     searchLimit,
		Threshold: searchThreshold,
	}

	var recs []*memory.Record
	if searchTextOnly {
		recs, err = rt.manager.SearchText(query, opts)
	} else {
		recs, err = rt.manager.Search(query, opts)
	}
	if err != nil {
		return err
	}

	if searchJSON {
		return printRecordsJSON(recs)
	}
	if len(recs) == 0 {
		fmt.Println("No memories found.")
		return nil
	}
	printRecordList(recs)
	return nil
}
