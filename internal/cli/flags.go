package cli

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gardar/ocrbatch/pkg/config"
)

var engines = []string{"tesseract", "documentai"}

type flags struct {
	set *pflag.FlagSet

	file       string
	folder     string
	format     string
	confidence float64
	lang       string
	test       bool
	diagnose   bool
	simple     bool
	showConfig bool
	configPath string
	output     string
	engine     string
	preprocess bool
	embedImage bool
	debug      bool
}

func newFlags(stderr io.Writer) *flags {
	f := &flags{set: pflag.NewFlagSet("ocrbatch", pflag.ContinueOnError)}
	fs := f.set
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVarP(&f.file, "file", "f", "", "Image file to process")
	fs.StringVarP(&f.folder, "folder", "d", "", "Folder of images to process")
	fs.StringVar(&f.format, "format", "txt", "Output format: txt, docx, pdf, hocr or json")
	fs.Float64VarP(&f.confidence, "confidence", "c", 0.5, "Minimum confidence (0-1) for a line to be kept")
	fs.StringVarP(&f.lang, "lang", "l", "ch", "Recognition language (ch, en, japan, korean, ...)")
	fs.BoolVar(&f.test, "test", false, "Create sample images and process them")
	fs.BoolVar(&f.diagnose, "diagnose", false, "Run the diagnostic suite and write a JSON report")
	fs.BoolVar(&f.simple, "simple", false, "Leave statistics and line details out of output files")
	fs.BoolVar(&f.showConfig, "show-config", false, "Print the effective configuration and exit")
	fs.StringVar(&f.configPath, "config", "", "Configuration file (default $OCRBATCH_CONFIG or ocrbatch.ini)")
	fs.StringVarP(&f.output, "output", "o", "", "Output folder (default from config)")
	fs.StringVar(&f.engine, "engine", "tesseract", "OCR engine: tesseract or documentai")
	fs.BoolVar(&f.preprocess, "preprocess", false, "Convert to grayscale, boost contrast and denoise before recognition")
	fs.BoolVar(&f.embedImage, "embed-image", false, "pdf: append the source image with a searchable text layer")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ocrbatch (--file IMAGE | --folder DIR | --test | --diagnose | --show-config) [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	return f
}

// apply overrides cfg with every flag given on the command line.
func (f *flags) apply(cfg *config.Config) error {
	fs := f.set
	if fs.Changed("confidence") {
		if math.IsNaN(f.confidence) || f.confidence < 0 || f.confidence > 1 {
			return fmt.Errorf("--confidence must be between 0 and 1, got %g", f.confidence)
		}
		cfg.Processing.ConfidenceThreshold = f.confidence
	}
	if fs.Changed("lang") {
		cfg.OCR.Lang = f.lang
	}
	if fs.Changed("format") {
		cfg.Processing.DefaultOutputFormat = strings.ToLower(strings.TrimSpace(f.format))
	}
	if fs.Changed("simple") {
		cfg.Output.SimpleOutput = f.simple
	}
	if fs.Changed("output") {
		cfg.Output.OutputFolder = f.output
	}
	if fs.Changed("engine") {
		e := strings.ToLower(f.engine)
		if !slices.Contains(engines, e) {
			return fmt.Errorf("--engine must be one of %v, got %q", engines, f.engine)
		}
		cfg.OCR.Engine = e
	}
	if fs.Changed("preprocess") {
		cfg.Processing.Preprocess = f.preprocess
	}
	if fs.Changed("embed-image") {
		cfg.Output.EmbedImage = f.embedImage
	}
	return nil
}
