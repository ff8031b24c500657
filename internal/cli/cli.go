// Package cli implements the ocrbatch command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/gardar/ocrbatch/pkg/config"
	"github.com/gardar/ocrbatch/pkg/export"
	"github.com/gardar/ocrbatch/pkg/fonts"
	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/pipeline"
	"github.com/gardar/ocrbatch/pkg/sample"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // engine, file or folder failure
	ExitUsage   = 2 // bad arguments or unsupported format
)

// EngineResolver returns the engine factory selected by the configuration.
type EngineResolver func(cfg *config.Config) (ocr.Factory, error)

// App is one invocation of the command.
type App struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Engines EngineResolver
	Now     func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Run executes the command for args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	f := newFlags(a.Stderr)
	if err := f.set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	if f.set.NArg() > 0 {
		fmt.Fprintf(a.Stderr, "Error: unexpected arguments: %s\n", strings.Join(f.set.Args(), " "))
		f.set.Usage()
		return ExitUsage
	}

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitUsage
	}
	level := env.LogLevel
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{Level: level}))

	configPath := env.ConfigPath
	if f.configPath != "" {
		configPath = f.configPath
	}
	cfg, warnings := config.Load(configPath)
	for _, w := range warnings {
		logger.Warn(w)
	}
	logger.Debug("Configuration loaded", "path", configPath, "from_file", cfg.FromFile)

	if err := f.apply(cfg); err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitUsage
	}

	if f.showConfig {
		fmt.Fprintf(a.Stdout, "; effective configuration (%s)\n", configPath)
		if _, err := cfg.WriteTo(a.Stdout); err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
			return ExitFailure
		}
		return ExitOK
	}

	format, err := export.ParseFormat(cfg.Processing.DefaultOutputFormat)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitUsage
	}

	if !f.test && !f.diagnose && f.folder == "" && f.file == "" {
		fmt.Fprintln(a.Stderr, "Error: one of --file, --folder, --test, --diagnose or --show-config is required")
		f.set.Usage()
		return ExitUsage
	}

	factory, err := a.Engines(cfg)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	opts := ocr.Options{
		Lang:                cfg.OCR.Lang,
		AngleClassification: cfg.OCR.UseAngleCls,
		UseGPU:              cfg.OCR.UseGPU,
		ShowLog:             cfg.OCR.ShowLog,
	}
	engine, used, err := ocr.Open(ctx, factory, opts, logger)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	defer engine.Close()

	r := &runner{
		app:    a,
		cfg:    cfg,
		format: format,
		engine: engine,
		opts:   used,
		logger: logger,
		processor: &pipeline.Processor{
			Engine:    engine,
			Threshold: cfg.Processing.ConfidenceThreshold,
			Preprocess: pipeline.PreprocessOptions{
				Enabled:  cfg.Processing.Preprocess,
				Contrast: cfg.Processing.Contrast,
				Denoise:  cfg.Processing.Denoise,
			},
			MaxImageBytes: cfg.Processing.MaxImageBytes,
			Logger:        logger,
			Now:           a.now,
		},
		export: export.Options{
			Folder:     cfg.Output.OutputFolder,
			Simple:     cfg.Output.SimpleOutput,
			EmbedImage: cfg.Output.EmbedImage,
			FontPath:   cfg.Output.FontPath,
			Lang:       used.Lang,
			Now:        a.now,
			Logger:     logger,
		},
	}

	switch {
	case f.test:
		return r.runSamples(ctx, sample.QuickCases, false)
	case f.diagnose:
		return r.runSamples(ctx, sample.DiagnosticCases, true)
	case f.folder != "":
		return r.runFolder(ctx, f.folder)
	default:
		return r.runFile(ctx, f.file)
	}
}

type runner struct {
	app       *App
	cfg       *config.Config
	format    export.Format
	engine    ocr.Engine
	opts      ocr.Options
	logger    *slog.Logger
	processor *pipeline.Processor
	export    export.Options
}

func (r *runner) printText(res *pipeline.Result) {
	out := r.app.Stdout
	fmt.Fprintln(out, "Recognized text:")
	if len(res.Accepted) == 0 {
		fmt.Fprintln(out, "  (no content)")
		return
	}
	for _, l := range res.Accepted {
		fmt.Fprintf(out, "  '%s'\n", l.Text)
	}
}

func (r *runner) runFile(ctx context.Context, path string) int {
	out := r.app.Stdout
	res, err := r.processor.ProcessImage(ctx, path)
	if err != nil {
		fmt.Fprintf(r.app.Stderr, "Error: processing %s: %v\n", path, err)
		return ExitFailure
	}
	saved, err := export.Save(res, r.format, r.export)
	if err != nil {
		fmt.Fprintf(r.app.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	fmt.Fprintln(out, "Processing complete")
	r.printText(res)
	fmt.Fprintf(out, "Output file: %s\n", saved)
	return ExitOK
}

func (r *runner) runFolder(ctx context.Context, dir string) int {
	out := r.app.Stdout
	var saved []string
	sink := func(res *pipeline.Result) error {
		path, err := export.Save(res, r.format, r.export)
		if err != nil {
			return err
		}
		saved = append(saved, path)
		fmt.Fprintf(out, "%s -> %s (%d lines)\n", filepath.Base(res.Source), path, res.Stats.Accepted)
		return nil
	}

	summary, err := r.processor.ProcessFolder(ctx, dir, sink)
	if err != nil {
		fmt.Fprintf(r.app.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	if summary.Found == 0 {
		fmt.Fprintf(out, "No supported images found in %s\n", dir)
		return ExitOK
	}

	fmt.Fprintf(out, "\nBatch complete: %d of %d images processed in %s, %d output files\n",
		summary.Succeeded, summary.Found, summary.Elapsed.Round(time.Millisecond), len(saved))
	for _, fe := range summary.Errors {
		fmt.Fprintf(out, "  failed: %s\n", fe.Error())
	}
	if summary.AllFailed() {
		return ExitFailure
	}
	return ExitOK
}

// runSamples renders cases, processes and saves them like regular input.
// With report set a diagnostic report is printed and saved as well.
func (r *runner) runSamples(ctx context.Context, cases []sample.Case, report bool) int {
	out := r.app.Stdout
	dir := filepath.Join(r.cfg.Output.OutputFolder, "samples")
	fontPath := fonts.Find(r.cfg.Output.FontPath, ".ttf", ".ttc", ".otf")
	if fontPath == "" {
		r.logger.Warn("No system font found, sample images use the built-in Latin font")
	}

	process := func(ctx context.Context, path string) (*pipeline.Result, error) {
		res, err := r.processor.ProcessImage(ctx, path)
		if err != nil {
			return nil, err
		}
		saved, err := export.Save(res, r.format, r.export)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "\nSample %s\n", filepath.Base(path))
		r.printText(res)
		fmt.Fprintf(out, "Output file: %s\n", saved)
		return res, nil
	}

	outcomes, err := sample.Run(ctx, cases, dir, fontPath, process, r.logger)
	if err != nil {
		fmt.Fprintf(r.app.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	if !report {
		return ExitOK
	}

	rep := sample.NewReport(outcomes, r.engine.Name(), map[string]string{
		"lang":                 r.opts.Lang,
		"use_angle_cls":        fmt.Sprint(r.opts.AngleClassification),
		"use_gpu":              fmt.Sprint(r.opts.UseGPU),
		"confidence_threshold": fmt.Sprint(r.cfg.Processing.ConfidenceThreshold),
		"preprocess":           fmt.Sprint(r.cfg.Processing.Preprocess),
	}, r.app.now())

	fmt.Fprintln(out, "\n=== Diagnostic Report ===")
	fmt.Fprintf(out, "Total cases: %d\n", rep.Total)
	fmt.Fprintf(out, "Successful: %d\n", rep.Successful)
	fmt.Fprintf(out, "Success rate: %.1f%%\n", rep.SuccessRate)
	if rep.Successful > 0 {
		fmt.Fprintf(out, "Average time: %.2fs\n", rep.AverageSeconds)
	}
	for i, o := range outcomes {
		fmt.Fprintf(out, "\nCase %d: %s\n", i+1, filepath.Base(o.Image))
		fmt.Fprintf(out, "  expected:   %q\n", o.Expected)
		fmt.Fprintf(out, "  recognized: %q\n", o.Recognized)
		fmt.Fprintf(out, "  accuracy:   %s\n", o.Accuracy)
		if o.Error != "" {
			fmt.Fprintf(out, "  error:      %s\n", o.Error)
		}
	}
	fmt.Fprintf(out, "\n%s\n", rep.Verdict())

	path, err := rep.Save(r.cfg.Output.OutputFolder)
	if err != nil {
		fmt.Fprintf(r.app.Stderr, "Error: saving report: %v\n", err)
		return ExitFailure
	}
	fmt.Fprintf(out, "Report saved: %s\n", path)
	return ExitOK
}
