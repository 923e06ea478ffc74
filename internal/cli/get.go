package cli

import (
	"fmt"

	"github.com/engram-oss/engram/internal/memory"
	"github.com/spf13/cobra"
)

var getJSON bool

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Retrieve a memory by id",
	Long:  "Retrieve a single memory. Retrieval counts as an access and bumps the record's access statistics.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "print the record as JSON")
}

func runGet(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.manager.Get(args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no memory with id %s", args[0])
	}

	if getJSON {
		return printJSON(memory.RecordToMap(rec))
	}
	printRecord(rec)
	return nil
}
