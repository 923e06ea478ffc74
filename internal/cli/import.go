package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import memories from a JSON export",
	Long: `Import memories from a JSON array of records, as produced by
'engram export'. Malformed records are skipped; pass - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	count, err := rt.manager.Import(items)
	if err != nil {
		if count > 0 {
			fmt.Printf("Imported %d of %d memories before failure\n", count, len(items))
		}
		return err
	}

	skipped := len(items) - count
	if skipped > 0 {
		fmt.Printf("Imported %d memories (%d skipped as malformed)\n", count, skipped)
	} else {
		fmt.Printf("Imported %d memories\n", count)
	}
	return nil
}
