package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Upload      UploadConfig  `toml:"upload"`
	Render      RenderConfig  `toml:"render"`
	Logging     LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

// StorageConfig holds the scratch directories. Files in them only live for one request.
type StorageConfig struct {
	UploadsDir    string `toml:"uploads_dir" validate:"required"`
	OutputsDir    string `toml:"outputs_dir" validate:"required"`
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule for the stale file janitor, empty disables it
	MaxAge        string `toml:"max_age"`        // Files older than this are swept (e.g. "30m")
}

type UploadConfig struct {
	MaxBytes      int64   `toml:"max_bytes" validate:"min=1"`
	RatePerSecond float64 `toml:"rate_per_second" validate:"min=0"` // 0 disables upload throttling
	Burst         int     `toml:"burst" validate:"min=0"`
}

// RenderConfig holds the fixed handwriting renderer parameters. None of these are exposed
// over HTTP.
type RenderConfig struct {
	FontPath        string  `toml:"font_path" validate:"required"`
	FontSize        float64 `toml:"font_size" validate:"gt=0"`
	DPI             float64 `toml:"dpi" validate:"gt=0"`
	CanvasWidth     int     `toml:"canvas_width" validate:"gt=0,gtfield=Padding"`
	MinCanvasHeight int     `toml:"min_canvas_height" validate:"gt=0"`
	Padding         int     `toml:"padding" validate:"min=0"`
	LineHeight      int     `toml:"line_height" validate:"gt=0"`
	LineSpacing     int     `toml:"line_spacing" validate:"min=0"`
	MaxLinesPerPage int     `toml:"max_lines_per_page" validate:"min=0"` // 0 keeps everything on one page
	MaxPages        int     `toml:"max_pages" validate:"min=1"`          // Longer text is rejected instead of rendered
	InkColor        string  `toml:"ink_color" validate:"hexcolor,len=4|len=7"`
	PaperColor      string  `toml:"paper_color" validate:"hexcolor,len=4|len=7"`
	PDFPageSize     string  `toml:"pdf_page_size" validate:"oneof=A3 A4 A5 Letter Legal"`
	PDFImageX       float64 `toml:"pdf_image_x" validate:"min=0"`
	PDFImageY       float64 `toml:"pdf_image_y" validate:"min=0"`
	PDFImageWidth   float64 `toml:"pdf_image_width" validate:"gt=0"`
}

// LinesPerCanvas returns how many line slots fit on a minimum-height canvas, never less than one
func (c RenderConfig) LinesPerCanvas() int {
	slot := c.LineHeight + c.LineSpacing
	if slot <= 0 {
		return 1
	}
	n := (c.MinCanvasHeight - 2*c.Padding) / slot
	if n < 1 {
		return 1
	}
	return n
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	render := RenderConfig{
		FontPath:        "./fonts/handwriting.ttf",
		FontSize:        32,
		DPI:             72,
		CanvasWidth:     1240, // A4 at 150dpi
		MinCanvasHeight: 1754,
		Padding:         50,
		LineHeight:      40,
		LineSpacing:     10,
		MaxPages:        20,
		InkColor:        "#1a237e",
		PaperColor:      "#ffffff",
		PDFPageSize:     "A4",
		PDFImageX:       10,
		PDFImageY:       10,
		PDFImageWidth:   190,
	}
	// One minimum-height canvas per page; long text goes out as a multi-page PDF
	render.MaxLinesPerPage = render.LinesPerCanvas()

	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 5000,
			Host: "localhost",
		},
		Storage: StorageConfig{
			UploadsDir:    "./uploads",
			OutputsDir:    "./outputs",
			SweepSchedule: "@every 10m",
			MaxAge:        "30m",
		},
		Upload: UploadConfig{
			MaxBytes:      32 << 20, // 32MB
			RatePerSecond: 0,
			Burst:         0,
		},
		Render: render,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. {exe_dir}, {cwd} and {home} placeholders are then expanded.
// CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal merges with existing values
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	unresolved, err := ExpandPlaceholders(config, PathVars())
	if err != nil {
		return nil, err
	}
	if len(unresolved) > 0 {
		return nil, fmt.Errorf("unresolved config placeholders: {%s}", strings.Join(unresolved, "}, {"))
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("INKWELL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("INKWELL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("INKWELL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if dir := os.Getenv("INKWELL_UPLOADS_DIR"); dir != "" {
		config.Storage.UploadsDir = dir
	}
	if dir := os.Getenv("INKWELL_OUTPUTS_DIR"); dir != "" {
		config.Storage.OutputsDir = dir
	}

	// Upload configuration
	if maxBytes := os.Getenv("INKWELL_UPLOAD_MAX_BYTES"); maxBytes != "" {
		if mb, err := strconv.ParseInt(maxBytes, 10, 64); err == nil {
			config.Upload.MaxBytes = mb
		}
	}
	if rate := os.Getenv("INKWELL_UPLOAD_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Upload.RatePerSecond = r
		}
	}

	// Render configuration
	if fontPath := os.Getenv("INKWELL_FONT_PATH"); fontPath != "" {
		config.Render.FontPath = fontPath
	}
	if fontSize := os.Getenv("INKWELL_FONT_SIZE"); fontSize != "" {
		if fs, err := strconv.ParseFloat(fontSize, 64); err == nil {
			config.Render.FontSize = fs
		}
	}
	if width := os.Getenv("INKWELL_CANVAS_WIDTH"); width != "" {
		if w, err := strconv.Atoi(width); err == nil {
			config.Render.CanvasWidth = w
		}
	}

	// Logging configuration
	if level := os.Getenv("INKWELL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("INKWELL_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the resolved configuration. Call it after all overrides are applied.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Storage.MaxAge != "" {
		if _, err := time.ParseDuration(c.Storage.MaxAge); err != nil {
			return fmt.Errorf("invalid configuration: storage.max_age %q: %w", c.Storage.MaxAge, err)
		}
	}

	return nil
}

// MaxAgeDuration returns the parsed scratch file max age, or zero when unset
func (s StorageConfig) MaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(s.MaxAge)
	if err != nil {
		return 0
	}
	return d
}
