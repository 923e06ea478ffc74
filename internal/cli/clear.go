package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	clearOwner string
	clearYes   bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete memories in bulk",
	Long: `Delete every memory, or every memory of one owner with --owner.

This is irreversible, so it refuses to run without --yes.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().StringVarP(&clearOwner, "owner", "o", "", "clear one owner scope only")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm the deletion")
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		scope := "ALL memories"
		if clearOwner != "" {
			scope = fmt.Sprintf("all memories owned by %q", clearOwner)
		}
		return fmt.Errorf("refusing to delete %s without --yes", scope)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.manager.Clear(clearOwner)
	if err != nil {
		return err
	}

	fmt.Printf("Cleared %d memories\n", n)
	return nil
}
