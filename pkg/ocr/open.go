package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// fallbackOptions returns the configurations tried in order: the configured
// one, then plain Chinese, then plain English.
func fallbackOptions(opts Options) []Options {
	candidates := []Options{opts, {Lang: "ch"}, {Lang: "en"}}
	var out []Options
	seen := make(map[Options]bool)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Open constructs an engine with factory. When the configured options fail,
// simpler configurations are tried before giving up. It returns the engine
// together with the options that succeeded.
func Open(ctx context.Context, factory Factory, opts Options, logger *slog.Logger) (Engine, Options, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var errs []error
	for _, candidate := range fallbackOptions(opts) {
		logger.Debug("Trying engine configuration", "options", candidate.String())
		engine, err := factory(ctx, candidate)
		if err != nil {
			logger.Warn("Engine configuration failed", "options", candidate.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
			continue
		}
		logger.Info("OCR engine initialized", "engine", engine.Name(), "options", candidate.String())
		return engine, candidate, nil
	}
	return nil, opts, fmt.Errorf("%w: %w", ErrEngineInit, errors.Join(errs...))
}
