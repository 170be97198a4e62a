package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruipin/flac-batch-reencode/internal/config"
	"github.com/ruipin/flac-batch-reencode/internal/logger"
	"github.com/ruipin/flac-batch-reencode/internal/pipeline"
	"github.com/ruipin/flac-batch-reencode/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("flac-reencode", flag.ContinueOnError)

	def := config.DefaultConfig()
	var (
		folder       string
		mask         string
		parallel     int
		checkVendor  bool
		vendorString string
		noVerify     bool
		flacPath     string
		metaflacPath string
		configPath   string
		cachePath    string
		logLevel     string
		dryRun       bool
	)
	fs.StringVar(&folder, "folder", def.Folder, "Root folder to search recursively")
	fs.StringVar(&folder, "f", def.Folder, "Same as --folder")
	fs.StringVar(&mask, "mask", def.Mask, "Glob mask matched against file names")
	fs.StringVar(&mask, "m", def.Mask, "Same as --mask")
	fs.IntVar(&parallel, "parallel", def.Parallel, "Number of parallel encodes")
	fs.IntVar(&parallel, "p", def.Parallel, "Same as --parallel")
	fs.BoolVar(&checkVendor, "vendor", false, "Skip files whose vendor string already matches")
	fs.BoolVar(&checkVendor, "v", false, "Same as --vendor")
	fs.StringVar(&vendorString, "vendor-string", def.VendorString, "Vendor string that marks a file as already done")
	fs.BoolVar(&noVerify, "no-verify", false, "Do not verify encodes against the input")
	fs.StringVar(&flacPath, "flac", def.FlacPath, "Path to the flac executable")
	fs.StringVar(&metaflacPath, "metaflac", def.MetaflacPath, "Path to the metaflac executable")
	fs.StringVar(&configPath, "config", "", "Path to config file (default: CONFIG_PATH env or none)")
	fs.StringVar(&cachePath, "cache", "", "Path to the vendor cache database (empty disables caching)")
	fs.StringVar(&logLevel, "log-level", def.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&dryRun, "dry-run", false, "List what would be re-encoded without running flac")
	fs.BoolVar(&dryRun, "d", false, "Same as --dry-run")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: flac-reencode [options]")
		fmt.Fprintln(fs.Output(), "Re-encodes FLAC files in-place using the latest libFLAC settings.")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}

	cfg := def
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			logger.Init("info")
			logger.Error("Could not load config", "path", cfgPath, "error", err)
			return 1
		}
		cfg = loaded
	}

	// Flags the user actually passed win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "f", "folder":
			cfg.Folder = folder
		case "m", "mask":
			cfg.Mask = mask
		case "p", "parallel":
			cfg.Parallel = parallel
		case "v", "vendor":
			cfg.CheckVendor = checkVendor
		case "vendor-string":
			cfg.VendorString = vendorString
		case "no-verify":
			cfg.Verify = !noVerify
		case "flac":
			cfg.FlacPath = flacPath
		case "metaflac":
			cfg.MetaflacPath = metaflacPath
		case "cache":
			cfg.CachePath = cachePath
		case "log-level":
			cfg.LogLevel = logLevel
		case "d", "dry-run":
			cfg.DryRun = dryRun
		}
	})

	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if cfg.CachePath != "" {
		var err error
		st, err = store.Open(cfg.CachePath)
		if err != nil {
			logger.Error("Could not open cache database", "path", cfg.CachePath, "error", err)
			return 1
		}
		defer st.Close()
	}

	summary, err := pipeline.New(cfg, st).Run(ctx)
	if err != nil {
		logger.Error("Run aborted", "error", err)
		return 1
	}
	if !summary.OK() {
		return 1
	}
	return 0
}
