package config

// This file implements CLI flag parsing for the three commands. Each
// command has its own flag set and positional contract but shares the
// encoding, display, and utility flags. The --config file (or a file found
// in a standard location) is applied before flags so flags always win.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// commonFlags holds flag values that are applied to cfg after Parse, so
// that defaults (and config-file values) hold unless the user passes the
// flag explicitly.
type commonFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
	configPath  string
}

// ParseConvertFlags parses the gopro-convert command line:
//
//	gopro-convert [flags] input.360 output.mp4
func ParseConvertFlags(cfg *Config, args []string, version string) error {
	fs, common := newFlagSet("gopro-convert", cfg, args, version,
		"Convert a GoPro Max .360 file (EAC) to 1408x704 dual-fisheye MP4.",
		"input.360 output.mp4")

	if err := parseWithConfigFile(fs, cfg, args, common, version); err != nil {
		return err
	}

	if cfg.CheckOnly {
		return nil
	}
	pos := fs.Args()
	if len(pos) != 2 {
		return fmt.Errorf("need exactly input and output file arguments")
	}
	cfg.Input = pos[0]
	cfg.Output = pos[1]
	return nil
}

// ParseMaskFlags parses the gopro-mask command line:
//
//	gopro-mask [flags] input.mp4 [output.mp4]
//
// When output is omitted it is derived from the input name with a _masked
// (or _test_masked) suffix.
func ParseMaskFlags(cfg *Config, args []string, version string) error {
	fs, common := newFlagSet("gopro-mask", cfg, args, version,
		"Composite the dual-circle vignette mask onto a dual-fisheye video.",
		"input.mp4 [output.mp4]")

	fs.BoolVar(&cfg.TestMode, "test", false, "Process only a short prefix of the input")
	fs.IntVar(&cfg.TestDuration, "test-duration", cfg.TestDuration, "Prefix length in seconds for --test")

	if err := parseWithConfigFile(fs, cfg, args, common, version); err != nil {
		return err
	}

	if cfg.CheckOnly {
		return nil
	}
	pos := fs.Args()
	switch len(pos) {
	case 1:
		cfg.Input = pos[0]
		cfg.Output = derivedMaskOutput(pos[0], cfg.TestMode)
	case 2:
		cfg.Input = pos[0]
		cfg.Output = pos[1]
	default:
		return fmt.Errorf("need an input file and optionally an output file")
	}
	return nil
}

// ParseBatchFlags parses the gopro-batch command line:
//
//	gopro-batch [flags] input_dir output_dir
func ParseBatchFlags(cfg *Config, args []string, version string) error {
	fs, common := newFlagSet("gopro-batch", cfg, args, version,
		"Convert every .360 file in a directory across a bounded worker pool.",
		"input_dir output_dir")

	fs.BoolVar(&cfg.AddMasking, "add-masking", cfg.AddMasking, "Apply circular masking after projection")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel workers (0 = auto)")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "Same as --workers")
	fs.BoolVar(&cfg.SkipExisting, "skip-existing", cfg.SkipExisting, "Skip files whose output already exists")

	if err := parseWithConfigFile(fs, cfg, args, common, version); err != nil {
		return err
	}

	if cfg.CheckOnly {
		return nil
	}
	pos := fs.Args()
	if len(pos) != 2 {
		return fmt.Errorf("need exactly input_dir and output_dir arguments")
	}
	cfg.InputDir = NormalizeDirArg(pos[0])
	cfg.OutputDir = NormalizeDirArg(pos[1])
	return nil
}

// newFlagSet builds a flag set with the flags shared by every command.
func newFlagSet(name string, cfg *Config, args []string, version, summary, positional string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	common := &commonFlags{}

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "%s v%s\n%s\n\nUsage: %s [flags] %s\n\nFlags:\n", name, version, summary, name, positional)
		fs.PrintDefaults()
	}

	// Encoding.
	fs.StringVar(&cfg.ProfileName, "profile", cfg.ProfileName, "Encoding profile: fast | balanced | quality")
	fs.IntVar(&cfg.CRF, "quality", cfg.CRF, "CRF override (0-51, lower = better)")
	fs.IntVar(&cfg.CRF, "q", cfg.CRF, "Same as --quality")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "x264 preset override (e.g. medium, slow)")
	fs.StringVar(&cfg.Preset, "p", cfg.Preset, "Same as --preset")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-job timeout (e.g. 30m); 0 disables")

	// Display and logging.
	fs.BoolVar(&common.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&common.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Show live ffmpeg output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")

	// Utility.
	fs.StringVar(&common.configPath, "config", "", "Config file (YAML)")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&common.showVersion, "version", false, "Print version and exit")

	return fs, common
}

// parseWithConfigFile applies the config file (explicit --config or a
// standard-location file), then parses flags on top and applies the
// after-parse overrides.
func parseWithConfigFile(fs *flag.FlagSet, cfg *Config, args []string, common *commonFlags, version string) error {
	if path := scanConfigArg(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return err
		}
	} else if path := FindConfigFile(); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return err
		}
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if common.showVersion {
		fmt.Fprintln(os.Stdout, fs.Name()+" v"+version)
		os.Exit(0)
	}
	if common.noColor {
		cfg.ColorMode = ColorNever
	} else if common.forceColor {
		cfg.ColorMode = ColorAlways
	}
	return nil
}

// scanConfigArg pre-scans args for --config so the file can be loaded
// before the real flag parse (flags must override file values).
func scanConfigArg(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" || arg == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--config="):
			return arg[len("--config="):]
		case strings.HasPrefix(arg, "-config="):
			return arg[len("-config="):]
		}
	}
	return ""
}

// derivedMaskOutput builds the default masking output path:
// clip.mp4 -> clip_masked.mp4 (clip_test_masked.mp4 under --test).
func derivedMaskOutput(input string, testMode bool) string {
	suffix := "_masked"
	if testMode {
		suffix = "_test_masked"
	}
	ext := ".mp4"
	stem := input
	if i := lastDot(input); i > 0 {
		stem = input[:i]
	}
	return stem + suffix + ext
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.':
			return i
		case '/':
			return -1
		}
	}
	return -1
}
