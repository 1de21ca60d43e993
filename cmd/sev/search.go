package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skype-export-viewer/internal/search"
	"github.com/Zuo-Peng/skype-export-viewer/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ").Replace(s)
}

func searchCmd() *cobra.Command {
	var swapped bool
	var conversation string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across every conversation",
		Long: `Classifies the whole export, then searches message text with FTS5.
Output is TSV for fzf integration:
  conversationId, messageId, time, title, sender, snippet

Recommended shell function (add to .zshrc):
  sevf() {
    sev search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'sev show {1} --hit {2} --query {q}' \
      --preview-window=right:60%:wrap
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(os.Stderr, "Indexing %d conversations...\n", len(a.lib.Export.Conversations))
			stats, err := a.lib.IndexAll(context.Background(), swapped)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			a.log.Info("indexed", "stats", stats.String())

			opts := search.Options{
				Swapped:      swapped,
				Conversation: conversation,
				Limit:        limit,
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if stdoutIsTerminal() {
				return tui.Run(a.lib, args[0], opts, a.renderOptions(swapped, args[0]))
			}

			opts.Query = args[0]
			results, err := search.Search(a.lib.DB, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields stay plain for fzf {1} {2}
				fmt.Printf("%s\t%s\t%s%s%s\t%s%s%s\t%s\t%s\n",
					r.ConversationID,
					r.MessageID,
					sColorDim, r.Timestamp, sColorReset,
					sColorBlue, tsvField(r.DisplayName), sColorReset,
					tsvField(r.Sender),
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&swapped, "swap", false, "Search from the other participant's side")
	cmd.Flags().StringVar(&conversation, "conversation", "", "Restrict to one conversation id")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
