package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/engram-oss/engram/internal/memory"
	"github.com/spf13/cobra"
)

var (
	rememberOwner     string
	rememberTags      []string
	rememberMeta      []string
	rememberBatchFile string
)

var rememberCmd = &cobra.Command{
	Use:   "remember <content>",
	Short: "Store a new memory",
	Long: `Store a new memory and embed it for semantic search.

Examples:
  engram remember "the staging db password rotates on fridays"
  engram remember --owner alice --tags infra,deploy "use blue/green for the gateway"
  engram remember --batch-file notes.txt`,
	Args: cobra.ArbitraryArgs,
	RunE: runRemember,
}

func init() {
	rememberCmd.Flags().StringVarP(&rememberOwner, "owner", "o", "", "owner scope for the memory")
	rememberCmd.Flags().StringSliceVarP(&rememberTags, "tags", "t", nil, "comma-separated tags")
	rememberCmd.Flags().StringSliceVarP(&rememberMeta, "meta", "m", nil, "metadata as key=value pairs")
	rememberCmd.Flags().StringVar(&rememberBatchFile, "batch-file", "", "store one memory per non-empty line of this file")
}

func runRemember(cmd *cobra.Command, args []string) error {
	meta, err := parseMetaFlags(rememberMeta)
	if err != nil {
		return err
	}
	opts := memory.RememberOptions{
		Owner:    rememberOwner,
		Tags:     rememberTags,
		Metadata: meta,
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if rememberBatchFile != "" {
		return rememberBatch(rt, opts)
	}

	if len(args) == 0 {
		return fmt.Errorf("nothing to remember: pass content or --batch-file")
	}

	rec, err := rt.manager.Remember(strings.Join(args, " "), opts)
	if err != nil {
		return err
	}

	fmt.Printf("Remembered %s\n", rec.ID)
	return nil
}

func rememberBatch(rt *appRuntime, opts memory.RememberOptions) error {
	f, err := os.Open(rememberBatchFile)
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	var contents []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		contents = append(contents, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	recs, err := rt.manager.RememberBatch(contents, opts)
	if err != nil {
		// Partial progress still counts; report it before failing.
		if len(recs) > 0 {
			fmt.Printf("Remembered %d of %d memories before failure\n", len(recs), len(contents))
		}
		return err
	}

	fmt.Printf("Remembered %d memories\n", len(recs))
	return nil
}
