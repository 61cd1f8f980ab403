// Package build orchestrates a full documentation build: variable seeding,
// module loading, engine construction, page rendering, asset copying,
// post-build hooks, and the surrounding bookkeeping (metrics, history,
// events).
package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docmacro/internal/config"
	"git.home.luguber.info/inful/docmacro/internal/extension"
	"git.home.luguber.info/inful/docmacro/internal/extension/builtin"
	"git.home.luguber.info/inful/docmacro/internal/extension/linkreport"
	"git.home.luguber.info/inful/docmacro/internal/metrics"
	"git.home.luguber.info/inful/docmacro/internal/notify"
)

// Status is the final outcome of a build.
type Status string

const (
	// StatusSuccess means every page rendered (or was legitimately skipped
	// by decision or fingerprint).
	StatusSuccess Status = "success"
	// StatusDegraded means at least one page failed evaluation and carries a
	// diagnostic body; the build itself completed.
	StatusDegraded Status = "degraded"
	// StatusFailed means the build aborted.
	StatusFailed Status = "failed"
	// StatusCancelled means the context was cancelled mid-build.
	StatusCancelled Status = "cancelled"
)

// Request describes one build.
type Request struct {
	Config *config.Config

	// OutputDir overrides the configured output directory when non-empty.
	OutputDir string

	// DryRun renders pages but writes nothing.
	DryRun bool

	// Incremental skips pages whose fingerprint is unchanged since the last
	// recorded build. Requires history to be enabled.
	Incremental bool

	// Verbose enables the module chatter channel regardless of config.
	Verbose bool

	// FailFast overrides macros.on_error_fail when non-nil.
	FailFast *bool
}

// Result summarizes one build.
type Result struct {
	BuildID   string
	Status    Status
	OutputDir string
	Rendered  int
	Skipped   int
	Failed    int
	Copied    int
	Duration  time.Duration
	StartTime time.Time
}

// Service runs builds.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// DefaultCatalog returns the catalog of modules linked into the binary.
func DefaultCatalog() *extension.Catalog {
	catalog := extension.NewCatalog()
	builtin.Register(catalog)
	linkreport.Register(catalog)
	return catalog
}

// DefaultService is the standard Service implementation. The zero value is
// usable; nil collaborators fall back to linked-in defaults.
type DefaultService struct {
	Catalog   *extension.Catalog
	Installer extension.Installer
	Recorder  metrics.Recorder
	Publisher *notify.Publisher
	Logger    *slog.Logger
}

// NewService returns a service with the default catalog and no-op
// collaborators.
func NewService() *DefaultService {
	return &DefaultService{}
}

func (s *DefaultService) catalog() *extension.Catalog {
	if s.Catalog == nil {
		s.Catalog = DefaultCatalog()
	}
	return s.Catalog
}

func (s *DefaultService) recorder() metrics.Recorder {
	if s.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return s.Recorder
}

func (s *DefaultService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func newBuildID() string {
	return uuid.NewString()
}
