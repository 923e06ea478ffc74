package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/engram-oss/engram/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create the engram config and data directory",
	Long: `Create an engram.yaml and the data directory that backs it.

Without arguments this scaffolds ~/.engram; pass a directory to create a
project-local engram.yaml instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing engram.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.DefaultDir()
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(config.Template), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	fmt.Printf("Initialized engram in %s\n", dir)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Adjust store and compaction settings in " + configPath)
	fmt.Println("  2. Run 'engram remember \"something worth keeping\"'")
	fmt.Println("  3. Run 'engram search <query>' to get it back")

	return nil
}
