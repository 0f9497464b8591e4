package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk with the AI assistant about your transactions",
		Long: "Starts an interactive conversation. Type /reload to refresh the\n" +
			"transactions, /reset to clear the conversation and /quit to leave.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.login(ctx); err != nil {
				return err
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			a.loadSnapshot(ctx, errOut)

			c := a.pipeline.Chat
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, dimStyle.Render("> "))
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())

				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/reset":
					c.Reset()
					fmt.Fprintln(out, dimStyle.Render("Conversation cleared."))
					continue
				case "/reload":
					a.loadSnapshot(ctx, errOut)
					continue
				}

				c.SetInput(line)
				if !c.Send(ctx) {
					continue
				}
				if reply, ok := lastReply(c.State()); ok {
					writeMessage(out, reply)
				}
			}
		},
	}
}
