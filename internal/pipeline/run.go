// Package pipeline drives a full re-encode run: discover candidate
// files, filter out files already carrying the target vendor string,
// schedule the rest across a bounded worker pool and report results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ruipin/flac-batch-reencode/internal/config"
	"github.com/ruipin/flac-batch-reencode/internal/flac"
	"github.com/ruipin/flac-batch-reencode/internal/jobs"
	"github.com/ruipin/flac-batch-reencode/internal/logger"
	"github.com/ruipin/flac-batch-reencode/internal/scan"
	"github.com/ruipin/flac-batch-reencode/internal/store"
)

// ErrFlacNotFound means the flac executable could not be resolved
// before any work started.
var ErrFlacNotFound = errors.New("flac executable not found")

// vendorProber abstracts flac.Prober so tests can filter candidates
// without spawning metaflac.
type vendorProber interface {
	Vendor(ctx context.Context, path string) (string, error)
}

// Pipeline holds everything a run needs. Build one with New; the
// zero value is not usable.
type Pipeline struct {
	cfg     *config.Config
	store   *store.Store
	encoder jobs.Encoder
	prober  vendorProber
	out     io.Writer
}

// New wires a pipeline from configuration. st may be nil, in which
// case vendor probes are never cached and no run history is kept.
func New(cfg *config.Config, st *store.Store) *Pipeline {
	var cache flac.VendorCache
	if st != nil {
		cache = st
	}

	var enc jobs.Encoder = flac.NewEncoder(cfg.FlacPath, cfg.Verify)
	if st != nil {
		enc = &invalidatingEncoder{enc: enc, store: st}
	}

	return &Pipeline{
		cfg:     cfg,
		store:   st,
		encoder: enc,
		prober:  flac.NewProber(cfg.MetaflacPath, cache),
		out:     os.Stdout,
	}
}

// Run executes the pipeline. The returned summary is valid even when
// err is non-nil; err reports fatal conditions such as an unreadable
// root folder, a missing flac executable or an integrity violation.
func (p *Pipeline) Run(ctx context.Context) (jobs.Summary, error) {
	var summary jobs.Summary
	cfg := p.cfg
	started := time.Now()

	logger.Info("Searching folder recursively", "folder", cfg.Folder, "mask", cfg.Mask)
	if cfg.CheckVendor {
		logger.Info("Will skip files that already match the vendor string", "vendor", cfg.VendorString)
	}

	files, err := scan.Discover(cfg.Folder, cfg.Mask)
	if err != nil {
		return summary, err
	}
	logger.Info("Discovery finished", "found", len(files))

	if !cfg.DryRun {
		if _, err := exec.LookPath(cfg.FlacPath); err != nil {
			return summary, fmt.Errorf("%w: %q: %v", ErrFlacNotFound, cfg.FlacPath, err)
		}
	}

	kept := files
	if cfg.CheckVendor {
		kept, err = p.filterByVendor(ctx, files, &summary)
		if err != nil {
			return summary, err
		}
	}

	if cfg.DryRun {
		p.dryRun(kept, &summary)
		p.logSummary(summary)
		return summary, nil
	}

	sched := jobs.NewScheduler(p.encoder, cfg.Parallel)
	sched.OnStart(p.progressFunc())

	runSummary, runErr := sched.Run(ctx, kept)
	summary.Merge(runSummary)

	p.logSummary(summary)

	if p.store != nil {
		if err := p.store.RecordRun(started, time.Now(), summary); err != nil {
			logger.Warn("Could not record run history", "error", err)
		}
	}
	return summary, runErr
}

// filterByVendor probes each candidate sequentially and drops the
// ones whose vendor string already matches. A failed probe keeps the
// file in the candidate set.
func (p *Pipeline) filterByVendor(ctx context.Context, files []string, summary *jobs.Summary) ([]string, error) {
	kept := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return kept, err
		}
		vendor, err := p.prober.Vendor(ctx, f)
		if err != nil {
			logger.Warn("Vendor probe failed, file stays in the candidate set", "file", f, "error", err)
			kept = append(kept, f)
			continue
		}
		if vendor == p.cfg.VendorString {
			logger.Debug("Skipping file, vendor string already matches", "file", f)
			summary.Record(jobs.Outcome{Path: f, Kind: jobs.KindSkipped, Detail: "vendor string matches"})
			continue
		}
		kept = append(kept, f)
	}
	return kept, nil
}

// dryRun reports what would be re-encoded without spawning anything.
// Listed files count as succeeded so the exit code stays zero.
func (p *Pipeline) dryRun(files []string, summary *jobs.Summary) {
	for i, f := range files {
		fmt.Fprintf(p.out, "[DRY] %s: Would re-encode '%s'\n", counter(i+1, len(files)), p.rel(f))
		summary.Record(jobs.Outcome{Path: f, Kind: jobs.KindSuccess})
	}
}

// progressFunc returns the OnStart callback that prints one progress
// line per dispatched file. Progress goes to p.out, keeping the log
// stream free for diagnostics.
func (p *Pipeline) progressFunc() jobs.StartFunc {
	return func(seq, total int, path string) {
		pct := 0
		if total > 0 {
			pct = seq * 100 / total
		}
		fmt.Fprintf(p.out, "%s (%d%%): Re-encoding '%s'...\n", counter(seq, total), pct, p.rel(path))
	}
}

func (p *Pipeline) logSummary(s jobs.Summary) {
	logger.Info("Finished", "reencoded", s.Succeeded, "skipped", s.Skipped, "failed", s.Failed)
	for _, f := range s.Failures {
		logger.Error("Re-encode failed", "file", f.Path, "exit_code", f.ExitCode, "detail", f.Detail)
	}
}

// rel shortens path for display. Paths outside the root folder are
// shown as given.
func (p *Pipeline) rel(path string) string {
	rel, err := filepath.Rel(p.cfg.Folder, path)
	if err != nil {
		return path
	}
	return rel
}

// counter formats "seq/total" with seq right-aligned to the width of
// total so progress lines stay column-stable.
func counter(seq, total int) string {
	width := len(strconv.Itoa(total))
	return fmt.Sprintf("%*d/%d", width, seq, total)
}

// invalidatingEncoder drops a file's cached vendor entry after a
// successful re-encode. The new file carries a new vendor tag, so the
// cached value no longer describes the bytes on disk.
type invalidatingEncoder struct {
	enc   jobs.Encoder
	store *store.Store
}

func (e *invalidatingEncoder) Encode(ctx context.Context, path string) error {
	if err := e.enc.Encode(ctx, path); err != nil {
		return err
	}
	if err := e.store.InvalidateVendor(path); err != nil {
		logger.Warn("Could not invalidate cached vendor entry", "file", path, "error", err)
	}
	return nil
}
