// Package watch implements live-rebuild mode: filesystem watching over the
// docs and include directories, debounced rebuilds, optional periodic full
// rebuilds, and an optional metrics endpoint.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docmacro/internal/build"
	"git.home.luguber.info/inful/docmacro/internal/config"
	"git.home.luguber.info/inful/docmacro/internal/logfields"
	"git.home.luguber.info/inful/docmacro/internal/metrics"
)

// Options configure a watcher.
type Options struct {
	Config  *config.Config
	Service build.Service

	// Recorder counts rebuilds; nil means no metrics.
	Recorder metrics.Recorder

	// Registry, when non-nil together with the config metrics section,
	// backs the /metrics endpoint.
	Registry *prom.Registry

	// MetricsListen overrides the configured listen address when non-empty.
	MetricsListen string

	Logger *slog.Logger
}

// Watcher rebuilds the site whenever the source tree changes. Render
// failures never stop the loop; fail-fast is forced off for the session.
type Watcher struct {
	cfg      *config.Config
	service  build.Service
	recorder metrics.Recorder
	registry *prom.Registry
	listen   string
	logger   *slog.Logger
	request  build.Request
}

// New validates options and prepares the rebuild request.
func New(opts Options) (*Watcher, error) {
	if opts.Config == nil {
		return nil, errors.New("watch: config is required")
	}
	if opts.Service == nil {
		return nil, errors.New("watch: build service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	listen := opts.MetricsListen
	if listen == "" && opts.Config.Metrics.Enabled {
		listen = opts.Config.Metrics.Listen
	}

	// A render failure in watch mode must not kill the process; the next
	// save gets another chance.
	failFast := false
	if opts.Config.Macros.OnErrorFail {
		logger.Info("on_error_fail is disabled while watching")
	}

	return &Watcher{
		cfg:      opts.Config,
		service:  opts.Service,
		recorder: recorder,
		registry: opts.Registry,
		listen:   listen,
		logger:   logger,
		request: build.Request{
			Config:   opts.Config,
			FailFast: &failFast,
		},
	}, nil
}

// Request returns the rebuild request the watcher issues; exposed for
// inspection in tests.
func (w *Watcher) Request() build.Request {
	return w.request
}

// Run builds once, then watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := w.service.Run(ctx, w.request); err != nil {
		// The initial build must succeed at least through setup; a broken
		// config is not something watching can fix.
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	roots := []string{w.cfg.ResolveDocsDir()}
	if inc := w.cfg.ResolveIncludeDir(); inc != roots[0] {
		roots = append(roots, inc)
	}
	for _, root := range roots {
		if err := addRecursive(fsw, root); err != nil {
			return err
		}
	}
	w.logger.Info("watching for changes",
		logfields.Path(strings.Join(roots, ", ")),
		slog.Duration("debounce", w.cfg.Watch.DebounceDuration()))

	scheduler, err := w.startPeriodic(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	server := w.startMetrics()
	if server != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	return w.loop(ctx, fsw)
}

// loop coalesces bursts of filesystem events into single rebuilds using a
// quiet-window timer.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	debounce := w.cfg.Watch.DebounceDuration()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			// New directories need their own watch before files inside them
			// produce events.
			if event.Op.Has(fsnotify.Create) {
				if err := addRecursive(fsw, event.Name); err == nil {
					w.logger.Debug("watching new path", logfields.Path(event.Name))
				}
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.rebuild(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	w.recorder.IncWatchRebuilds()
	result, err := w.service.Run(ctx, w.request)
	if err != nil {
		w.logger.Error("rebuild failed", logfields.Error(err))
		return
	}
	w.logger.Info("rebuilt",
		logfields.Name(string(result.Status)),
		logfields.Count(result.Rendered),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
}

// startPeriodic schedules full rebuilds at the configured interval; zero
// disables them.
func (w *Watcher) startPeriodic(ctx context.Context) (gocron.Scheduler, error) {
	interval := w.cfg.Watch.RebuildIntervalDuration()
	if interval <= 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { w.rebuild(ctx) }),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	scheduler.Start()
	w.logger.Info("periodic rebuild enabled", slog.Duration("interval", interval))
	return scheduler, nil
}

// startMetrics serves /metrics when configured; failures are logged, not
// fatal, since metrics are auxiliary to watching.
func (w *Watcher) startMetrics() *http.Server {
	if w.listen == "" || w.registry == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(w.registry))
	server := &http.Server{Addr: w.listen, Handler: mux}

	go func() {
		w.logger.Info("metrics endpoint listening", logfields.Name(w.listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Warn("metrics endpoint failed", logfields.Error(err))
		}
	}()
	return server
}

// relevant filters out noise: chmod-only events and editor artifacts.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	return true
}

// addRecursive watches path and every directory below it. Non-directories
// are ignored.
func addRecursive(fsw *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != path {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}
