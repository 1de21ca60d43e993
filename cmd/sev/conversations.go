package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skype-export-viewer/internal/search"
	"github.com/Zuo-Peng/skype-export-viewer/internal/tui"
)

func conversationsCmd() *cobra.Command {
	var swapped bool
	var limit int

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls", "list"},
		Short:   "Browse all conversations by last activity",
		Long: `Opens a TUI panel showing every conversation in the export, most recently
active first. Type to search message text across all conversations.

When stdout is not a terminal, prints TSV instead:
  conversationId, kind, lastActivity, records, title`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			opts := search.Options{Swapped: swapped, Limit: limit}
			if stdoutIsTerminal() {
				return tui.RunList(a.lib, opts, a.renderOptions(swapped, ""))
			}

			convs, err := a.lib.DB.Conversations()
			if err != nil {
				return err
			}
			for i, c := range convs {
				if limit > 0 && i >= limit {
					break
				}
				kind := "direct"
				if c.CounterpartID == "" {
					kind = "group"
				}
				last := c.LastTs
				if last == "" {
					last = "-"
				}
				fmt.Printf("%s\t%s\t%s\t%d\t%s\n",
					c.ConversationID, kind, last, c.RecordCount,
					strings.NewReplacer("\t", " ", "\n", " ").Replace(c.DisplayName),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&swapped, "swap", false, "View from the other participant's side")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max conversations (0 = no limit)")

	return cmd
}
