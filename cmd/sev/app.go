package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/Zuo-Peng/skype-export-viewer/internal/config"
	"github.com/Zuo-Peng/skype-export-viewer/internal/export"
	"github.com/Zuo-Peng/skype-export-viewer/internal/index"
	"github.com/Zuo-Peng/skype-export-viewer/internal/logging"
	"github.com/Zuo-Peng/skype-export-viewer/internal/media"
	"github.com/Zuo-Peng/skype-export-viewer/internal/render"
	"github.com/Zuo-Peng/skype-export-viewer/internal/scan"
)

var rootFlags struct {
	export   string
	viewer   string
	logLevel string
}

// app is everything a subcommand needs: config, the loaded export and the
// in-memory message cache.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	layout scan.Layout
	lib    *index.Library
	store  *media.Store
	loc    *time.Location
	window time.Duration
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if rootFlags.logLevel != "" {
		level = rootFlags.logLevel
	}
	return cfg, logging.Init(level), nil
}

func loadApp() (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	exportPath := cfg.ExportPath
	if rootFlags.export != "" {
		exportPath = rootFlags.export
	}
	layout, err := scan.Locate(exportPath)
	if err != nil {
		return nil, fmt.Errorf("locate export: %w", err)
	}

	mediaDir := layout.MediaDir
	if rootFlags.export == "" && isDir(cfg.MediaDir) {
		mediaDir = cfg.MediaDir
	}
	layout.MediaDir = mediaDir

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	exp, err := export.Read(layout.MessagesFile)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", layout.MessagesFile, err)
	}
	log.Info("export loaded",
		"path", layout.MessagesFile,
		"conversations", len(exp.Conversations),
		"records", exp.RecordCount(),
		"elapsed", time.Since(start),
	)

	db, err := index.OpenDB()
	if err != nil {
		return nil, err
	}

	viewer := cfg.ViewerID
	if rootFlags.viewer != "" {
		viewer = rootFlags.viewer
	}
	lib, err := index.NewLibrary(db, exp, viewer, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	lib.ChunkSize = cfg.ChunkSize

	a := &app{
		cfg:    cfg,
		log:    log,
		layout: layout,
		lib:    lib,
		loc:    loc,
		window: window,
	}
	if mediaDir != "" {
		a.store = media.OpenDir(mediaDir)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.lib.DB.Close()
}

func (a *app) renderOptions(swapped bool, query string) render.Options {
	return render.Options{
		Query:       query,
		Swapped:     swapped,
		Location:    a.loc,
		GroupWindow: a.window,
		Media:       a.store,
	}
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or 0 when it is not a terminal.
func terminalWidth() int {
	if !stdoutIsTerminal() {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
