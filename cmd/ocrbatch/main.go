// ocrbatch is a command-line tool that recognizes text in images with an
// external OCR engine and saves the result as TXT, DOCX, PDF, hOCR or JSON.
//
// Text detection and recognition are done by the engine (Tesseract by
// default, or Google Document AI). ocrbatch loads the images, drops lines
// below the confidence threshold, gathers statistics and writes one output
// file per image into the output folder.
//
// Configuration:
//
// Settings are read from an INI file (ocrbatch.ini, or $OCRBATCH_CONFIG).
// A file with the defaults is created when it does not exist:
//
//	[OCR]
//	lang = ch
//	use_angle_cls = true
//	use_gpu = false
//	show_log = false
//	engine = tesseract
//	documentai_config =
//
//	[PROCESSING]
//	confidence_threshold = 0.5
//	default_output_format = txt
//	preprocess = false
//	contrast = 30
//	denoise = true
//	max_image_size = 50MiB
//
//	[OUTPUT]
//	output_folder = ./output
//	simple_output = false
//	embed_image = false
//	font_path =
//
// Flags given on the command line override the file. The log level is taken
// from $OCRBATCH_LOG_LEVEL (DEBUG, INFO, WARN, ERROR).
//
// Usage:
//
//	ocrbatch --file scan.png [options]
//	ocrbatch --folder ./scans [options]
//	ocrbatch --test | --diagnose | --show-config
//
// Modes (checked in this order):
//
//	--show-config        Print the effective configuration and exit
//	--test               Create three sample images and process them
//	--diagnose           Run seven sample cases and write ocr_diagnostic_<time>.json
//	--folder string      Process every image in a folder, skipping files that fail
//	--file string        Process a single image
//
// Options:
//
//	--format string      txt, docx, pdf, hocr or json (default txt)
//	--confidence float   Minimum line confidence between 0 and 1 (default 0.5)
//	--lang string        Recognition language (default ch)
//	--simple             Leave statistics and line details out of output files
//	--config string      Configuration file
//	--output string      Output folder
//	--engine string      tesseract or documentai
//	--preprocess         Grayscale, contrast and denoise before recognition
//	--embed-image        pdf: append the source image with a searchable text layer
//	--debug              Enable debug logging
//
// Exit status is 0 on success, 1 when the engine cannot be initialized or
// nothing could be processed, and 2 on invalid arguments.
//
// Example:
//
//	ocrbatch --folder ./scans --format pdf --embed-image --lang en --confidence 0.7
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gardar/ocrbatch/internal/cli"
	"github.com/gardar/ocrbatch/pkg/config"
	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/ocr/documentai"
	"github.com/gardar/ocrbatch/pkg/ocr/tesseract"
)

// engineFactory selects the engine named in the configuration.
func engineFactory(cfg *config.Config) (ocr.Factory, error) {
	switch cfg.OCR.Engine {
	case "documentai":
		if cfg.OCR.DocumentAIConfig == "" {
			return nil, fmt.Errorf("engine documentai needs documentai_config in [OCR]")
		}
		dcfg, err := documentai.LoadConfig(cfg.OCR.DocumentAIConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load Document AI config: %w", err)
		}
		return documentai.NewFactory(dcfg), nil
	default:
		return tesseract.New, nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	app := &cli.App{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Engines: engineFactory,
	}
	code := app.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
