package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skype-export-viewer/internal/open"
)

func mediaCmd() *cobra.Command {
	var info bool

	cmd := &cobra.Command{
		Use:   "media <mediaId>",
		Short: "Open an exported media file in $VIEWER or the system viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.store == nil {
				return fmt.Errorf("export has no media folder")
			}
			if !info {
				return open.OpenMedia(a.store, args[0])
			}

			asset, err := a.store.Resolve(args[0])
			if err != nil {
				return err
			}
			if asset == nil {
				return fmt.Errorf("media not found: %s", args[0])
			}
			fmt.Printf("id:        %s\n", asset.ID)
			fmt.Printf("filename:  %s\n", asset.Filename())
			for _, f := range []struct{ label, name string }{
				{"primary", asset.Primary},
				{"thumbnail", asset.Thumbnail},
			} {
				if f.name == "" {
					fmt.Printf("%-10s -\n", f.label+":")
					continue
				}
				p := a.store.Path(f.name)
				size := "?"
				if st, err := os.Stat(p); err == nil {
					size = humanize.Bytes(uint64(st.Size()))
				}
				fmt.Printf("%-10s %s (%s)\n", f.label+":", p, size)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&info, "info", false, "Print the resolved files instead of opening")

	return cmd
}
