package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lockstep.dev/lockstep/internal/output"
	"lockstep.dev/lockstep/internal/provider"
	"lockstep.dev/lockstep/internal/queue"
	"lockstep.dev/lockstep/internal/runtime"
)

func getRuntime(cmd *cobra.Command) (*runtime.Context, error) {
	splog := output.NewSplog()
	return runtime.GetContext(cmd.Context(), newTerminalHost(splog))
}

// runOp executes an operation synchronously, surfacing its error lines.
func runOp(cmd *cobra.Command, ctx *runtime.Context, op provider.Operation) error {
	result, err := ctx.Provider.Execute(cmd.Context(), op, queue.Asynchronous, nil)
	if err != nil {
		return err
	}

	switch result {
	case queue.ResultSucceeded:
		return nil
	case queue.ResultCancelled:
		return fmt.Errorf("%s was cancelled", op.Name)
	default:
		for _, line := range ctx.Provider.LastErrors() {
			ctx.Splog.Error("%s", line)
		}
		return fmt.Errorf("%s failed", op.Name)
	}
}
