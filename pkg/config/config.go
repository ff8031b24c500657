// Package config loads the INI configuration of ocrbatch.
//
// The configuration is read once per run and never fails: a missing file is
// replaced by the built-in defaults (and a default file is written for the
// user to edit), and any key that is absent or cannot be parsed falls back to
// its default with a warning.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"gopkg.in/ini.v1"
)

// Section names used in the INI file.
const (
	SectionOCR        = "OCR"
	SectionProcessing = "PROCESSING"
	SectionOutput     = "OUTPUT"
)

// OutputFormats lists the values accepted for default_output_format.
var OutputFormats = []string{"txt", "docx", "pdf", "hocr", "json"}

// OCR holds the options the engine is constructed with.
type OCR struct {
	Lang             string
	UseAngleCls      bool
	UseGPU           bool
	ShowLog          bool
	Engine           string // "tesseract" or "documentai"
	DocumentAIConfig string // path to the Document AI processor YAML
}

// Processing holds the per-image processing options.
type Processing struct {
	ConfidenceThreshold float64
	DefaultOutputFormat string
	Preprocess          bool
	Contrast            float64 // percentage, -100..100
	Denoise             bool
	MaxImageSize        string // humanized, e.g. "50MiB"
	MaxImageBytes       uint64
}

// Output holds where and how results are written.
type Output struct {
	OutputFolder string
	SimpleOutput bool
	EmbedImage   bool
	FontPath     string
}

// Config is the effective configuration of one run.
type Config struct {
	OCR        OCR
	Processing Processing
	Output     Output

	Path     string // file the configuration was read from
	FromFile bool   // false when only defaults are in effect
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OCR: OCR{
			Lang:        "ch",
			UseAngleCls: true,
			Engine:      "tesseract",
		},
		Processing: Processing{
			ConfidenceThreshold: 0.5,
			DefaultOutputFormat: "txt",
			Contrast:            30,
			Denoise:             true,
			MaxImageSize:        "50MiB",
			MaxImageBytes:       50 * 1024 * 1024,
		},
		Output: Output{
			OutputFolder: "./output",
		},
	}
}

// Load reads the configuration at path. It never fails; problems are
// returned as warnings and the affected values keep their defaults.
func Load(path string) (*Config, []string) {
	cfg := Default()
	cfg.Path = path

	var warnings []string
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := WriteDefault(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("could not create default config %s: %v", path, err))
		}
		return cfg, warnings
	}

	file, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("could not read config %s, using defaults: %v", path, err))
		return cfg, warnings
	}
	cfg.FromFile = true

	r := &reader{file: file}
	cfg.OCR.Lang = r.str(SectionOCR, "lang", cfg.OCR.Lang)
	cfg.OCR.UseAngleCls = r.boolean(SectionOCR, "use_angle_cls", cfg.OCR.UseAngleCls)
	cfg.OCR.UseGPU = r.boolean(SectionOCR, "use_gpu", cfg.OCR.UseGPU)
	cfg.OCR.ShowLog = r.boolean(SectionOCR, "show_log", cfg.OCR.ShowLog)
	cfg.OCR.Engine = r.oneOf(SectionOCR, "engine", cfg.OCR.Engine, []string{"tesseract", "documentai"})
	cfg.OCR.DocumentAIConfig = r.optional(SectionOCR, "documentai_config")

	cfg.Processing.ConfidenceThreshold = r.float(SectionProcessing, "confidence_threshold",
		cfg.Processing.ConfidenceThreshold, 0, 1)
	cfg.Processing.DefaultOutputFormat = r.oneOf(SectionProcessing, "default_output_format",
		cfg.Processing.DefaultOutputFormat, OutputFormats)
	cfg.Processing.Preprocess = r.boolean(SectionProcessing, "preprocess", cfg.Processing.Preprocess)
	cfg.Processing.Contrast = r.float(SectionProcessing, "contrast", cfg.Processing.Contrast, -100, 100)
	cfg.Processing.Denoise = r.boolean(SectionProcessing, "denoise", cfg.Processing.Denoise)
	if size := r.str(SectionProcessing, "max_image_size", ""); size != "" {
		if n, err := humanize.ParseBytes(size); err != nil || n == 0 {
			r.warnf("[%s] max_image_size = %q is not a valid size, using %s", SectionProcessing, size, cfg.Processing.MaxImageSize)
		} else {
			cfg.Processing.MaxImageSize = size
			cfg.Processing.MaxImageBytes = n
		}
	}

	cfg.Output.OutputFolder = r.str(SectionOutput, "output_folder", cfg.Output.OutputFolder)
	cfg.Output.SimpleOutput = r.boolean(SectionOutput, "simple_output", cfg.Output.SimpleOutput)
	cfg.Output.EmbedImage = r.boolean(SectionOutput, "embed_image", cfg.Output.EmbedImage)
	cfg.Output.FontPath = r.optional(SectionOutput, "font_path")

	return cfg, append(warnings, r.warnings...)
}

// WriteDefault writes the built-in configuration to path.
func WriteDefault(path string) error {
	return Default().toINI().SaveTo(path)
}

// WriteTo renders the configuration as INI.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	return c.toINI().WriteTo(w)
}

func (c *Config) toINI() *ini.File {
	f := ini.Empty()
	set := func(section, key, value string) {
		f.Section(section).Key(key).SetValue(value)
	}
	set(SectionOCR, "lang", c.OCR.Lang)
	set(SectionOCR, "use_angle_cls", strconv.FormatBool(c.OCR.UseAngleCls))
	set(SectionOCR, "use_gpu", strconv.FormatBool(c.OCR.UseGPU))
	set(SectionOCR, "show_log", strconv.FormatBool(c.OCR.ShowLog))
	set(SectionOCR, "engine", c.OCR.Engine)
	set(SectionOCR, "documentai_config", c.OCR.DocumentAIConfig)

	set(SectionProcessing, "confidence_threshold", strconv.FormatFloat(c.Processing.ConfidenceThreshold, 'f', -1, 64))
	set(SectionProcessing, "default_output_format", c.Processing.DefaultOutputFormat)
	set(SectionProcessing, "preprocess", strconv.FormatBool(c.Processing.Preprocess))
	set(SectionProcessing, "contrast", strconv.FormatFloat(c.Processing.Contrast, 'f', -1, 64))
	set(SectionProcessing, "denoise", strconv.FormatBool(c.Processing.Denoise))
	set(SectionProcessing, "max_image_size", c.Processing.MaxImageSize)

	set(SectionOutput, "output_folder", c.Output.OutputFolder)
	set(SectionOutput, "simple_output", strconv.FormatBool(c.Output.SimpleOutput))
	set(SectionOutput, "embed_image", strconv.FormatBool(c.Output.EmbedImage))
	set(SectionOutput, "font_path", c.Output.FontPath)
	return f
}
