package cli

import (
	"fmt"
	"runtime"

	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/embedding"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and dependencies",
	Long:  "Validate that the configuration, store, and embedding engine are usable.",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("engram doctor — checking your setup")
	fmt.Println()
	allOK := true

	// 1. Go version
	fmt.Printf("  Go version: %s", runtime.Version())
	fmt.Println(" ✓")

	// 2. OS/Arch
	fmt.Printf("  Platform:   %s/%s", runtime.GOOS, runtime.GOARCH)
	fmt.Println(" ✓")

	// 3. Configuration
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		fmt.Printf("  Config:     INVALID ✗\n")
		fmt.Printf("    → %v\n", err)
		fmt.Println()
		fmt.Println("Fix the configuration before the remaining checks can run.")
		return nil
	}
	fmt.Printf("  Config:     v%s", cfg.Version)
	fmt.Println(" ✓")

	// 4. Store
	store, err := memory.NewStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		fmt.Printf("  Store:      FAILED (%v) ✗\n", err)
		allOK = false
	} else {
		count, countErr := store.Count("")
		if countErr != nil {
			fmt.Printf("  Store:      UNREADABLE (%v) ✗\n", countErr)
			allOK = false
		} else {
			target := cfg.Store.Driver
			if cfg.Store.Path != "" {
				target = fmt.Sprintf("%s (%s)", cfg.Store.Driver, cfg.Store.Path)
			}
			fmt.Printf("  Store:      %s, %d memories", target, count)
			fmt.Println(" ✓")
		}
		store.Close()
	}

	// 5. Embedding engine
	engine, err := embedding.NewEngine(embedding.Config{
		Provider:      cfg.Engine.Provider,
		ModelPath:     cfg.Engine.ModelPath,
		TokenizerPath: cfg.Engine.TokenizerPath,
		LibraryPath:   cfg.Engine.LibraryPath,
	})
	if err != nil {
		fmt.Printf("  Engine:     FAILED (%v) ✗\n", err)
		allOK = false
	} else {
		if engine.Ready() {
			fmt.Printf("  Engine:     %s, %d dims", engine.ModelName(), engine.Dimension())
			fmt.Println(" ✓")
		} else {
			fmt.Printf("  Engine:     %s NOT READY ✗\n", engine.ModelName())
			allOK = false
		}
	}

	// 6. Hooks
	if len(cfg.Hooks) > 0 {
		fmt.Printf("  Hooks:      %d configured", len(cfg.Hooks))
		fmt.Println(" ✓")
	}

	fmt.Println()
	if allOK {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See above for details.")
	}

	return nil
}
