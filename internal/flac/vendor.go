package flac

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ruipin/flac-batch-reencode/internal/logger"
)

// ErrProbe marks vendor probe failures: missing metaflac binary, non-zero
// exit, unreadable file. Probe failures are never fatal to the run and must
// never cause a file to be skipped; callers degrade to re-encoding.
var ErrProbe = errors.New("vendor probe failed")

// VendorCache is an optional persistent cache for probe results, keyed by
// path plus size and mtime so a re-encoded file is always re-probed.
// Implemented by internal/store.
type VendorCache interface {
	GetVendor(path string, size, mtimeNS int64) (string, bool, error)
	PutVendor(path string, size, mtimeNS int64, vendor string) error
}

// Prober reads a file's embedded encoder vendor tag via metaflac.
type Prober struct {
	metaflacPath string
	runner       Runner
	cache        VendorCache
}

// NewProber returns a Prober invoking the given metaflac binary.
// cache may be nil to probe unconditionally.
func NewProber(metaflacPath string, cache VendorCache) *Prober {
	return &Prober{
		metaflacPath: metaflacPath,
		runner:       NewRunner(),
		cache:        cache,
	}
}

// Vendor returns the file's vendor string, trimmed of surrounding
// whitespace. Errors wrap ErrProbe.
func (p *Prober) Vendor(ctx context.Context, path string) (string, error) {
	var size, mtimeNS int64
	if p.cache != nil {
		if fi, err := os.Stat(path); err == nil {
			size = fi.Size()
			mtimeNS = fi.ModTime().UnixNano()
			vendor, ok, err := p.cache.GetVendor(path, size, mtimeNS)
			if err != nil {
				logger.Warn("Vendor cache lookup failed", "file", path, "error", err)
			} else if ok {
				logger.Debug("Vendor tag served from cache", "file", path, "vendor", vendor)
				return vendor, nil
			}
		}
	}

	res, err := p.runner.Run(ctx, p.metaflacPath, "--show-vendor-tag", path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrProbe, path, err)
	}
	if res.ExitCode != 0 {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(res.Stdout)
		}
		return "", fmt.Errorf("%w: %s: metaflac exited with code %d: %s",
			ErrProbe, path, res.ExitCode, detail)
	}

	vendor := strings.TrimSpace(res.Stdout)

	if p.cache != nil && mtimeNS != 0 {
		if err := p.cache.PutVendor(path, size, mtimeNS, vendor); err != nil {
			logger.Warn("Vendor cache update failed", "file", path, "error", err)
		}
	}

	return vendor, nil
}
