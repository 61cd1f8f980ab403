package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docmacro/internal/docs"
	"git.home.luguber.info/inful/docmacro/internal/errors"
	"git.home.luguber.info/inful/docmacro/internal/frontmatter"
	"git.home.luguber.info/inful/docmacro/internal/history"
	"git.home.luguber.info/inful/docmacro/internal/incremental"
	"git.home.luguber.info/inful/docmacro/internal/logfields"
	"git.home.luguber.info/inful/docmacro/internal/markdown"
	"git.home.luguber.info/inful/docmacro/internal/metrics"
	"git.home.luguber.info/inful/docmacro/internal/notify"
	"git.home.luguber.info/inful/docmacro/internal/render"
	"git.home.luguber.info/inful/docmacro/internal/vars"
)

// Run executes one build end to end. The returned error is fatal (setup
// failure, hook failure, or evaluation failure under fail-fast); page
// evaluation failures in degraded mode are counted in the result instead.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{
		BuildID:   newBuildID(),
		Status:    StatusSuccess,
		StartTime: start,
	}
	logger := s.logger()

	sess, err := s.setup(ctx, req)
	if err != nil {
		return nil, err
	}
	result.OutputDir = sess.outputDir

	hist, checker, err := s.openHistory(ctx, req, sess)
	if err != nil {
		return nil, err
	}
	if hist != nil {
		defer hist.Close()
	}

	rec := s.recorder()
	rec.SetPagesTotal(len(sess.tree.Pages))

	logger.Info("build started",
		logfields.BuildID(result.BuildID),
		logfields.Count(len(sess.tree.Pages)),
		logfields.Policy(string(sess.engine.Policy())))

	for _, page := range sess.tree.Pages {
		if ctx.Err() != nil {
			result.Status = StatusCancelled
			result.Duration = time.Since(start)
			return result, ctx.Err()
		}

		outcome, err := s.processPage(ctx, req, sess, checker, hist, result, page)
		if err != nil {
			result.Status = StatusFailed
			result.Duration = time.Since(start)
			rec.IncBuildOutcome(metrics.BuildFailed)
			return result, err
		}
		rec.IncPageOutcome(outcome)
	}

	if !req.DryRun {
		for _, asset := range sess.tree.Assets {
			if err := copyAsset(asset, sess.outputDir); err != nil {
				return nil, err
			}
			result.Copied++
		}

		if err := sess.pipeline.RunPostBuild(sess.env); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	if result.Failed > 0 {
		result.Status = StatusDegraded
	}

	s.finishBuild(ctx, req, sess, hist, checker, result)

	logger.Info("build finished",
		logfields.BuildID(result.BuildID),
		logfields.Name(string(result.Status)),
		logfields.Count(result.Rendered),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))

	return result, nil
}

// processPage runs one page through parse, fingerprint check, render, and
// output. The returned error is fatal to the build.
func (s *DefaultService) processPage(ctx context.Context, req Request, sess *session, checker *incremental.Checker, hist *history.Store, result *Result, page docs.Page) (metrics.PageOutcomeLabel, error) {
	pageStart := time.Now()
	rec := s.recorder()
	logger := s.logger()

	raw, err := os.ReadFile(page.AbsPath)
	if err != nil {
		return metrics.PageFailed, errors.FileSystemError("read page", err).
			WithContext("page", page.RelPath)
	}

	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return metrics.PageFailed, errors.RenderError(page.RelPath, err)
	}

	fingerprint := ""
	if hist != nil && checker == nil {
		// Full builds still record fingerprints so the next incremental run
		// has a base to compare against.
		fingerprint, err = incremental.PageFingerprint(doc.Meta, doc.Body)
		if err != nil {
			return metrics.PageFailed, err
		}
	}
	if checker != nil {
		shouldRender, fp, err := checker.ShouldRender(ctx, page.RelPath, doc.Meta, doc.Body)
		if err != nil {
			return metrics.PageFailed, err
		}
		fingerprint = fp
		if !shouldRender {
			logger.Debug("page unchanged, skipping", logfields.Page(page.RelPath))
			result.Skipped++
			s.recordPage(ctx, hist, result.BuildID, page.RelPath, fingerprint, "skipped", time.Since(pageStart))
			rec.ObservePageDuration(metrics.PageSkipped, time.Since(pageStart))
			return metrics.PageSkipped, nil
		}
	}

	rendered, err := sess.controller.RenderPage(render.Page{
		File:   page.RelPath,
		Title:  doc.Title(),
		Meta:   doc.Meta,
		Source: string(doc.Body),
		URL:    page.URL(),
	})
	if err != nil {
		return metrics.PageFailed, err
	}

	outcome := metrics.PageRendered
	outcomeName := "rendered"
	switch rendered.State {
	case render.StateSkipped:
		outcome = metrics.PageSkipped
		outcomeName = "skipped"
		result.Skipped++
	case render.StateFailed:
		outcome = metrics.PageFailed
		outcomeName = "failed"
		result.Failed++
	default:
		result.Rendered++
	}

	if !req.DryRun {
		if err := writePage(sess.outputDir, page.RelPath, doc, rendered); err != nil {
			return metrics.PageFailed, err
		}
	}

	s.recordPage(ctx, hist, result.BuildID, page.RelPath, fingerprint, outcomeName, time.Since(pageStart))
	rec.ObservePageDuration(outcome, time.Since(pageStart))
	return outcome, nil
}

// writePage recomposes front matter and body and writes the output file,
// creating parent directories. A title changed by rendering is folded back
// into the front matter; an absent title is filled from the rendered body.
func writePage(outputDir, relPath string, doc *frontmatter.Document, rendered *render.Result) error {
	var fields map[string]any
	if doc.HasFrontMatter && rendered.State == render.StateRendered {
		title := rendered.Title
		if title == "" {
			title = markdown.ExtractTitle([]byte(rendered.Output))
		}
		if title != "" && title != doc.Title() {
			fields = vars.DeepCopy(doc.Meta)
			if fields == nil {
				fields = map[string]any{}
			}
			fields["title"] = title
		}
	}

	out, err := doc.Recompose([]byte(rendered.Output), fields)
	if err != nil {
		return errors.InternalError("recompose page", err).
			WithContext("page", relPath)
	}

	dest := filepath.Join(outputDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.FileSystemError("create output directory", err)
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return errors.FileSystemError("write page", err).
			WithContext("page", relPath)
	}
	return nil
}

func copyAsset(asset docs.Asset, outputDir string) error {
	src, err := os.Open(asset.AbsPath)
	if err != nil {
		return errors.FileSystemError("open asset", err)
	}
	defer src.Close()

	dest := filepath.Join(outputDir, filepath.FromSlash(asset.RelPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.FileSystemError("create output directory", err)
	}
	dst, err := os.Create(dest)
	if err != nil {
		return errors.FileSystemError("create asset", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.FileSystemError("copy asset", err)
	}
	return nil
}

// openHistory opens the history store and, in incremental mode, the
// fingerprint checker. Incremental without history enabled degrades to a
// full build with a logged notice.
func (s *DefaultService) openHistory(ctx context.Context, req Request, sess *session) (*history.Store, *incremental.Checker, error) {
	if !sess.cfg.History.Enabled {
		if req.Incremental {
			s.logger().Warn("incremental requested but history is disabled, running a full build")
		}
		return nil, nil, nil
	}

	hist, err := history.Open(sess.cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}

	if !req.Incremental {
		return hist, nil, nil
	}

	signature, err := incremental.BuildSignature(sess.cfg,
		sess.registry.MacroNames(), sess.registry.FilterNames())
	if err != nil {
		_ = hist.Close()
		return nil, nil, err
	}
	checker, err := incremental.NewChecker(ctx, hist, signature)
	if err != nil {
		_ = hist.Close()
		return nil, nil, err
	}
	return hist, checker, nil
}

func (s *DefaultService) recordPage(ctx context.Context, hist *history.Store, buildID, path, fingerprint, outcome string, d time.Duration) {
	if hist == nil {
		return
	}
	err := hist.RecordPage(ctx, history.PageRecord{
		BuildID:     buildID,
		Path:        path,
		Fingerprint: fingerprint,
		Outcome:     outcome,
		Duration:    d,
	})
	if err != nil {
		s.logger().Warn("failed to record page history",
			logfields.Page(path), logfields.Error(err))
	}
}

// finishBuild records the build, updates build metrics, and publishes the
// build event. All of it is best-effort bookkeeping.
func (s *DefaultService) finishBuild(ctx context.Context, req Request, sess *session, hist *history.Store, checker *incremental.Checker, result *Result) {
	rec := s.recorder()
	rec.ObserveBuildDuration(result.Duration)
	switch result.Status {
	case StatusDegraded:
		rec.IncBuildOutcome(metrics.BuildDegraded)
	case StatusSuccess:
		rec.IncBuildOutcome(metrics.BuildSuccess)
	default:
		rec.IncBuildOutcome(metrics.BuildFailed)
	}

	if hist != nil && !req.DryRun {
		signature := ""
		if checker != nil {
			signature = checker.Signature()
		} else {
			sig, err := incremental.BuildSignature(sess.cfg,
				sess.registry.MacroNames(), sess.registry.FilterNames())
			if err == nil {
				signature = sig
			}
		}
		err := hist.RecordBuild(ctx, history.BuildRecord{
			BuildID:   result.BuildID,
			Status:    string(result.Status),
			Signature: signature,
			Rendered:  result.Rendered,
			Skipped:   result.Skipped,
			Failed:    result.Failed,
			StartedAt: result.StartTime,
			Duration:  result.Duration,
		})
		if err != nil {
			s.logger().Warn("failed to record build history", logfields.Error(err))
		}
	}

	if err := s.Publisher.Publish(notify.BuildEvent{
		BuildID:   result.BuildID,
		Status:    string(result.Status),
		SiteName:  sess.cfg.SiteName,
		OutputDir: result.OutputDir,
		Rendered:  result.Rendered,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Duration:  result.Duration.String(),
	}); err != nil {
		s.logger().Warn("failed to publish build event", logfields.Error(err))
	}
}
