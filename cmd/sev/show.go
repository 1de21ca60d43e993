package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skype-export-viewer/internal/render"
	"github.com/Zuo-Peng/skype-export-viewer/internal/search"
)

func showCmd() *cobra.Command {
	var swapped bool
	var query, hit string
	var width int

	cmd := &cobra.Command{
		Use:   "show <conversationId>",
		Short: "Print a conversation grouped by date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			opts := a.renderOptions(swapped, query)
			opts.HitMessageID = hit
			opts.Plain = !stdoutIsTerminal()
			opts.Width = width
			if width < 0 {
				opts.Width = terminalWidth()
			}

			if query != "" && hit == "" {
				msgs, err := a.lib.Conversation(ctx, args[0], swapped)
				if err != nil {
					return err
				}
				matches := search.MatchIndices(msgs, query)
				fmt.Fprintf(os.Stderr, "%d matches for %q\n", len(matches), query)
				if len(matches) > 0 {
					opts.HitMessageID = msgs[matches[0]].ID
				}
			}

			out, _, err := render.RenderConversation(ctx, a.lib, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&swapped, "swap", false, "View from the other participant's side")
	cmd.Flags().StringVar(&query, "query", "", "Highlight messages containing this text")
	cmd.Flags().StringVar(&hit, "hit", "", "Message id to mark")
	cmd.Flags().IntVar(&width, "width", -1, "Wrap width (-1 = terminal width, 0 = no wrap)")

	return cmd
}
