package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ok, err := rt.manager.Forget(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no memory with id %s", args[0])
	}

	fmt.Printf("Forgot %s\n", args[0])
	return nil
}
