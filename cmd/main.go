// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"cert-scan/internal/cert"
	"cert-scan/internal/certrepo"
	"cert-scan/internal/config"
	"cert-scan/internal/formatters"
	"cert-scan/internal/notify"
	"cert-scan/internal/observability"
	"cert-scan/internal/pipeline"
	"cert-scan/internal/rules"
	"cert-scan/internal/store"
	"cert-scan/internal/version"
	"cert-scan/internal/vision"
	"cert-scan/internal/web"

	// Import formatters to register them
	_ "cert-scan/internal/formatters/csv"
	_ "cert-scan/internal/formatters/json"
	_ "cert-scan/internal/formatters/markdown"
	_ "cert-scan/internal/formatters/text"
)

// configFlags holds command line flag values
type configFlags struct {
	inputFile     string
	configFile    string
	rulesFile     string
	outputFormat  string
	outputFile    string
	stateOverride string
	workers       int
	verbose       bool
	debug         bool
	noColor       bool
	quiet         bool
	recursive     bool
	webMode       bool
	webPort       int
	repoSync      bool
	repoFilter    string
	showVersion   bool
}

// finalConfiguration holds resolved configuration values
type finalConfiguration struct {
	format        string
	stateOverride string
	rulesFile     string
	workers       int
	verbose       bool
	debug         bool
	noColor       bool
	quiet         bool
	recursive     bool
	webPort       int
}

// resolveConfiguration resolves final values from the config file and
// command line flags; an explicitly set flag wins.
func resolveConfiguration(cfg *config.Config, flags *configFlags) *finalConfiguration {
	final := &finalConfiguration{}

	final.format = "text" // default fallback
	if cfg.Defaults.Format != "" {
		final.format = cfg.Defaults.Format
	}
	if isFlagSet("format") && flags.outputFormat != "" {
		final.format = flags.outputFormat
	}

	final.stateOverride = cfg.Defaults.StateOverride
	if isFlagSet("state") {
		final.stateOverride = flags.stateOverride
	}

	final.rulesFile = cfg.Defaults.RulesFile
	if isFlagSet("rules") {
		final.rulesFile = flags.rulesFile
	}

	final.workers = cfg.Defaults.Workers
	if isFlagSet("workers") && flags.workers > 0 {
		final.workers = flags.workers
	}

	final.debug = cfg.Defaults.Debug
	if isFlagSet("debug") {
		final.debug = flags.debug
	}

	final.noColor = cfg.Defaults.NoColor
	if isFlagSet("no-color") {
		final.noColor = flags.noColor
	}

	final.quiet = cfg.Defaults.Quiet
	if isFlagSet("quiet") {
		final.quiet = flags.quiet
	}

	final.recursive = cfg.Defaults.Recursive
	if isFlagSet("recursive") {
		final.recursive = flags.recursive
	}

	final.verbose = false
	if isFlagSet("verbose") {
		final.verbose = flags.verbose
	}

	final.webPort = cfg.Web.Port
	if isFlagSet("port") && flags.webPort > 0 {
		final.webPort = flags.webPort
	}

	return final
}

func main() {
	inputFile := flag.String("file", "", "Path to a certificate file or a directory of certificates")
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	rulesFile := flag.String("rules", "", "Path to a YAML file overriding individual rule tables")
	outputFormat := flag.String("format", "", "Output format: text, json, csv, markdown (default: text)")
	outputFile := flag.String("output", "", "Path to output file (if not specified, output to stdout)")
	stateOverride := flag.String("state", "", "Force the exemption state for every certificate (e.g. TX)")
	workers := flag.Int("workers", 0, "Number of parallel validation workers (default: 4)")
	verbose := flag.Bool("verbose", false, "Display recommendations and passed checks in text output")
	debug := flag.Bool("debug", false, "Enable debug logging of pipeline steps")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	quiet := flag.Bool("quiet", false, "Suppress progress output (useful for scripts and CI/CD)")
	recursive := flag.Bool("recursive", false, "Recursively scan directories")
	webMode := flag.Bool("web", false, "Start the HTTP API instead of CLI validation")
	webPort := flag.Int("port", 0, "Port for the HTTP API (default: 8080)")
	repoSync := flag.Bool("repo-sync", false, "Pull certificates from the configured repository and validate their attachments")
	repoFilter := flag.String("repo-filter", "", "Repository filter expression for -repo-sync")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	flags := &configFlags{
		inputFile:     *inputFile,
		configFile:    *configFile,
		rulesFile:     *rulesFile,
		outputFormat:  *outputFormat,
		outputFile:    *outputFile,
		stateOverride: *stateOverride,
		workers:       *workers,
		verbose:       *verbose,
		debug:         *debug,
		noColor:       *noColor,
		quiet:         *quiet,
		recursive:     *recursive,
		webMode:       *webMode,
		webPort:       *webPort,
		repoSync:      *repoSync,
		repoFilter:    *repoFilter,
		showVersion:   *showVersion,
	}

	if flags.showVersion {
		fmt.Println(version.Info())
		return
	}

	cfg := config.LoadConfigOrDefault(flags.configFile)
	finalConfig := resolveConfiguration(cfg, flags)

	// Auto-detect non-interactive environment
	if !isTerminal(os.Stderr) || finalConfig.quiet || os.Getenv("CI") != "" {
		finalConfig.noColor = true
	}

	observer := observability.NewObserver(observability.LevelOff, nil)
	if finalConfig.debug {
		observer = observability.NewObserver(observability.LevelDebug, os.Stderr)
	}

	ruleSet, err := loadRules(finalConfig.rulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	pipe := pipeline.New(ruleSet, observer)
	if cfg.Vision.Enabled {
		apiKey := os.Getenv(cfg.Vision.APIKeyEnv)
		if apiKey == "" {
			fmt.Fprintf(os.Stderr, "Warning: vision is enabled but %s is not set; continuing without it\n", cfg.Vision.APIKeyEnv)
		} else {
			pipe.Vision = vision.NewProvider(apiKey, cfg.Vision.Model)
			pipe.MinVisionConfidence = cfg.Vision.MinConfidence
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.webMode {
		if err := web.NewServer(finalConfig.webPort, pipe).Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var files []string
	var cleanup func()
	switch {
	case flags.repoSync:
		files, cleanup, err = pullRepository(ctx, cfg, flags.repoFilter, finalConfig.quiet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
	case flags.inputFile != "":
		files, err = pipeline.CollectFiles(flags.inputFile, finalConfig.recursive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: no input specified. Use -file <path>, -repo-sync, or -web.\n")
		flag.Usage()
		os.Exit(1)
	}

	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No certificate files to process\n")
		os.Exit(2)
	}
	if !finalConfig.quiet {
		fmt.Fprintf(os.Stderr, "Validating %d certificate(s) with %d worker(s)...\n", len(files), finalConfig.workers)
	}

	results := pipe.ValidateBatch(ctx, files, finalConfig.workers, pipeline.Options{
		StateOverride: finalConfig.stateOverride,
	})

	output, err := formatters.Export(finalConfig.format, results, formatters.Options{
		Verbose:       finalConfig.verbose,
		NoColor:       finalConfig.noColor,
		IncludePassed: finalConfig.verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flags.outputFile != "" {
		if err := os.WriteFile(filepath.Clean(flags.outputFile), []byte(output), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !finalConfig.quiet {
			fmt.Fprintf(os.Stderr, "Results written to %s\n", flags.outputFile)
		}
	} else {
		fmt.Print(output)
	}

	persistResults(cfg, results)
	notifyResults(cfg, results)

	// Exit code 1 signals certificates that cannot be accepted as-is.
	for _, r := range results {
		if r.Disposition == cert.DispositionNeedsCorrection {
			os.Exit(1)
		}
	}
}

func loadRules(rulesFile string) (*rules.RuleSet, error) {
	if rulesFile != "" {
		rs, err := rules.Load(rulesFile)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", rulesFile, err)
		}
		return rs, nil
	}
	rs, err := rules.Default()
	if err != nil {
		return nil, fmt.Errorf("loading built-in rules: %w", err)
	}
	return rs, nil
}

// pullRepository downloads attachments for every matching repository
// certificate into a temp directory and returns their paths.
func pullRepository(ctx context.Context, cfg *config.Config, filter string, quiet bool) ([]string, func(), error) {
	if !cfg.Repository.Enabled || cfg.Repository.BaseURL == "" {
		return nil, nil, fmt.Errorf("repository sync requires repository.enabled and repository.base_url in the config file")
	}
	username := os.Getenv(cfg.Repository.UsernameEnv)
	password := os.Getenv(cfg.Repository.PasswordEnv)
	if username == "" || password == "" {
		return nil, nil, fmt.Errorf("repository credentials missing: set %s and %s", cfg.Repository.UsernameEnv, cfg.Repository.PasswordEnv)
	}

	client := certrepo.NewClient(cfg.Repository.BaseURL, username, password, cfg.Repository.PageSize)
	certs, err := client.ListCertificates(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "Repository returned %d certificate(s)\n", len(certs))
	}

	dir, err := os.MkdirTemp("", "cert-scan-repo-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating staging directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	var files []string
	for _, c := range certs {
		if !c.HasAttachment() {
			continue
		}
		data, err := client.GetAttachment(ctx, c.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping certificate %d: %v\n", c.ID, err)
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("certificate-%d%s", c.ID, attachmentExt(data)))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("staging attachment for certificate %d: %w", c.ID, err)
		}
		files = append(files, path)
	}
	return files, cleanup, nil
}

func attachmentExt(data []byte) string {
	if len(data) >= 5 && string(data[:5]) == "%PDF-" {
		return ".pdf"
	}
	return ".txt"
}

func persistResults(cfg *config.Config, results []*cert.ValidationResult) {
	if !cfg.Store.Enabled {
		return
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open result store: %v\n", err)
		return
	}
	defer db.Close()
	if err := db.SaveBatch(results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save results: %v\n", err)
	}
}

func notifyResults(cfg *config.Config, results []*cert.ValidationResult) {
	if !cfg.Notify.Enabled {
		return
	}
	token := os.Getenv(cfg.Notify.TokenEnv)
	if token == "" || cfg.Notify.Channel == "" {
		fmt.Fprintf(os.Stderr, "Warning: notifications enabled but %s or notify.channel is missing\n", cfg.Notify.TokenEnv)
		return
	}
	notifier := notify.NewNotifier(token, cfg.Notify.Channel)
	if err := notifier.NotifyBatchSummary(results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	for _, r := range results {
		if r.Disposition == cert.DispositionNeedsReview {
			if err := notifier.NotifyReview(r); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	}
}

// isFlagSet reports whether the named flag was given on the command line.
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
