package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

const FormatText = "text"

// New returns a JSON logger, or a coloured text logger when format is "text".
func New(w io.Writer, format string) *slog.Logger {
	if format == FormatText {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}
