package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/adapters/sqlite"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Backend is an opened storage stack.
type Backend struct {
	// Store is the decorated DocumentStore.
	Store ports.DocumentStore
	// Watcher is set when the raw backend can report external changes.
	Watcher ports.Watchable
	// Locker is set for shared backends (redis).
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases backend connections.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenBackend builds the configured DocumentStore and wraps it with the
// metrics, redaction and encryption middlewares, outermost first. reg may be nil.
func (c Config) OpenBackend(logger *slog.Logger, reg prometheus.Registerer) (*Backend, error) {
	b := &Backend{}
	var raw ports.DocumentStore

	switch c.Store.Backend {
	case BackendMemory:
		raw = memory.NewStore()
	case BackendFile:
		format, err := codec.ParseFormat(c.Store.Format)
		if err != nil {
			return nil, err
		}
		fs := file.New(c.Store.Dir, file.WithFormat(format), file.WithLogger(logger))
		raw, b.Watcher = fs, fs
	case BackendLoam:
		ls, err := loam.Open(c.Store.Dir)
		if err != nil {
			return nil, err
		}
		raw = ls
	case BackendSQLite:
		path := c.SQLite.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Store.Dir, path)
		}
		ss, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		raw = ss
		b.closers = append(b.closers, ss.Close)
	case BackendRedis:
		var opts []redis.Option
		if c.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Redis.Prefix))
		}
		if c.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Redis.TTL))
		}
		rs := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, opts...)
		raw = rs
		b.Locker = redis.NewLocker(rs.Client(), "arbor:")
		b.closers = append(b.closers, rs.Close)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	mws, err := c.middlewares(reg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(raw, mws...)
	return b, nil
}

func (c Config) middlewares(reg prometheus.Registerer) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if reg != nil {
		mws = append(mws, middleware.NewMetrics(reg).Middleware())
	}
	if len(c.Redact) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(c.Redact))
	}
	if c.EncryptionKey != "" {
		key, err := middleware.ParseKey(c.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: key}
		for i, s := range c.FallbackKeys {
			k, err := middleware.ParseKey(s)
			if err != nil {
				return nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, k)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return mws, nil
}

// EditorOptions translates editor settings into arbor options.
func (c Config) EditorOptions(b *Backend, logger *slog.Logger) ([]arbor.Option, error) {
	components, err := c.ComponentRegistry()
	if err != nil {
		return nil, err
	}
	opts := []arbor.Option{
		arbor.WithComponents(components),
		arbor.WithDocumentStore(b.Store),
		arbor.WithLogger(logger),
		arbor.WithPageType(c.PageType),
	}
	if b.Locker != nil {
		opts = append(opts, arbor.WithLocker(b.Locker))
	}
	if c.HistoryLimit != nil {
		opts = append(opts, arbor.WithHistoryLimit(*c.HistoryLimit))
	}
	if c.Autosave > 0 {
		opts = append(opts, arbor.WithAutosave(c.Autosave))
	}
	return opts, nil
}
