package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/skype-export-viewer/internal/config"
	"github.com/Zuo-Peng/skype-export-viewer/internal/sanitize"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify paths, load the export, classify it and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			if home, err := os.UserHomeDir(); err == nil {
				checkFile("Config", config.Path(home))
			}
			fmt.Printf("  Group window: %s\n", cfg.GroupWindow)
			fmt.Printf("  Chunk size:   %d\n", cfg.ChunkSize)
			if cfg.Timezone != "" {
				fmt.Printf("  Timezone:     %s\n", cfg.Timezone)
			}

			a, err := loadApp()
			if err != nil {
				fmt.Printf("  Export: %v\n", err)
				return nil
			}
			defer a.Close()

			fmt.Println("\n=== Export ===")
			checkFile("Messages", a.layout.MessagesFile)
			exp := a.lib.Export
			fmt.Printf("  User:          %s\n", orDash(exp.UserID))
			fmt.Printf("  Exported:      %s\n", orDash(exp.ExportDate))
			fmt.Printf("  Conversations: %s\n", humanize.Comma(int64(len(exp.Conversations))))
			fmt.Printf("  Records:       %s\n", humanize.Comma(int64(exp.RecordCount())))

			fmt.Println("\n=== Media ===")
			if a.layout.MediaDir == "" {
				fmt.Println("  Media folder: NOT FOUND")
			} else {
				files, size := dirStats(a.layout.MediaDir)
				fmt.Printf("  Folder: %s\n", a.layout.MediaDir)
				fmt.Printf("  Files:  %s (%s)\n", humanize.Comma(int64(files)), humanize.Bytes(uint64(size)))
			}

			fmt.Println("\n=== Classification ===")
			fmt.Printf("  Sanitizer rules: %v\n", sanitize.Rules())
			start := time.Now()
			stats, err := a.lib.IndexAll(context.Background(), false)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			fmt.Printf("  %s (%s)\n", stats, time.Since(start).Round(time.Millisecond))
			counts, err := a.lib.DB.KindCounts(false)
			if err != nil {
				return err
			}
			printKindCounts(counts)

			fmt.Println("\n=== FTS5 ===")
			msgCount, err := a.lib.DB.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}
			var ftsCount int
			err = a.lib.DB.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == msgCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", msgCount, ftsCount)
				}
			}
			return nil
		},
	}
}

func checkFile(name, path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	case info.IsDir():
		fmt.Printf("  %s: %s (IS A DIRECTORY)\n", name, path)
	default:
		fmt.Printf("  %s: %s (OK, %s)\n", name, path, humanize.Bytes(uint64(info.Size())))
	}
}

func dirStats(dir string) (files int, size int64) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size
}
