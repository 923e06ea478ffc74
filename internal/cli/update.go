package cli

import (
	"fmt"
	"strings"

	"github.com/engram-oss/engram/internal/memory"
	"github.com/spf13/cobra"
)

var (
	updateTags []string
	updateMeta []string
)

var updateCmd = &cobra.Command{
	Use:   "update <id> <content>",
	Short: "Rewrite a memory's content",
	Long: `Rewrite a memory's content and re-embed it. Tags and metadata
given here are merged into the existing record rather than replacing it.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringSliceVarP(&updateTags, "tags", "t", nil, "tags to merge in")
	updateCmd.Flags().StringSliceVarP(&updateMeta, "meta", "m", nil, "metadata key=value pairs to merge in")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	meta, err := parseMetaFlags(updateMeta)
	if err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	id := args[0]
	content := strings.Join(args[1:], " ")

	ok, err := rt.manager.Update(id, content, memory.UpdateOptions{
		Tags:     updateTags,
		Metadata: meta,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no memory with id %s", id)
	}

	fmt.Printf("Updated %s\n", id)
	return nil
}
