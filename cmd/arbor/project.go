package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// project is the configured storage stack of one CLI invocation.
type project struct {
	cfg     config.Config
	logger  *slog.Logger
	backend *config.Backend
}

// openProject resolves --dir, --config, --debug and --format into an opened
// backend. reg receives the store metrics and may be nil.
func openProject(cmd *cobra.Command, reg prometheus.Registerer) (*project, error) {
	dir, _ := cmd.Flags().GetString("dir")
	cfgPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	format, _ := cmd.Flags().GetString("format")

	if cfgPath == "" {
		cfgPath = config.Find(dir)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Store.Dir) {
		cfg.Store.Dir = filepath.Join(dir, cfg.Store.Dir)
	}
	if format != "" {
		cfg.Store.Format = format
	}

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), level, logging.FormatText)

	backend, err := cfg.OpenBackend(logger, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	logger.Debug("project opened", "backend", cfg.Store.Backend, "dir", cfg.Store.Dir, "config", cfgPath)
	return &project{cfg: cfg, logger: logger, backend: backend}, nil
}

func (p *project) Close() error {
	return p.backend.Close()
}

// sessions returns a manager over the project store.
func (p *project) sessions() *session.Manager {
	opts := []session.Option{session.WithLogger(p.logger)}
	if p.backend.Locker != nil {
		opts = append(opts, session.WithLocker(p.backend.Locker))
	}
	return session.NewManager(p.backend.Store, opts...)
}

// editor builds an Editor with the project settings followed by extra.
func (p *project) editor(extra ...arbor.Option) (*arbor.Editor, error) {
	opts, err := p.cfg.EditorOptions(p.backend, p.logger)
	if err != nil {
		return nil, err
	}
	return arbor.New(append(opts, extra...)...), nil
}

// closeEditor flushes the final autosave. A failure is logged and returned
// through err unless err already holds an error.
func (p *project) closeEditor(editor *arbor.Editor, err *error) {
	cerr := editor.Close(context.Background())
	if cerr == nil {
		return
	}
	p.logger.Error("final save failed", "document_id", editor.DocumentID(), "err", cerr)
	if *err == nil {
		*err = cerr
	}
}
