package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one question about your transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.login(ctx); err != nil {
				return err
			}
			a.loadSnapshot(ctx, cmd.ErrOrStderr())

			c := a.pipeline.Chat
			if !c.Submit(ctx, strings.Join(args, " ")) {
				return errors.New("question is empty")
			}
			if reply, ok := lastReply(c.State()); ok {
				fmt.Fprintln(cmd.OutOrStdout(), renderSegments(reply.Segments))
			}
			return nil
		},
	}
}

// loadSnapshot refreshes the transactions the model sees. A failure is
// reported and the conversation continues without them.
func (a *app) loadSnapshot(ctx context.Context, errOut io.Writer) {
	records, err := a.pipeline.Snapshot.Load(ctx)
	if err != nil {
		fmt.Fprintln(errOut, warnStyle.Render("Could not load transactions; answers will not include them."))
		return
	}
	fmt.Fprintln(errOut, dimStyle.Render(fmt.Sprintf("Loaded %d transactions.", len(records))))
}
