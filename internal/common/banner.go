package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective service settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("Inkwell", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("uploads_dir", config.Storage.UploadsDir).
		Str("outputs_dir", config.Storage.OutputsDir).
		Str("font", config.Render.FontPath).
		Msg("Inkwell starting")
}
