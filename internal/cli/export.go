package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOwner string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export memories as JSON",
	Long:  "Export memories as a JSON array of records, to stdout or a file.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOwner, "owner", "o", "", "export one owner scope only")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	items, err := rt.manager.Export(exportOwner)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	out = append(out, '\n')

	if exportOut == "" {
		_, err = os.Stdout.Write(out)
		return err
	}

	if err := os.WriteFile(exportOut, out, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d memories to %s\n", len(items), exportOut)
	return nil
}
