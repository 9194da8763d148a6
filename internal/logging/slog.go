package logging

import (
	"io"
	"log/slog"
	"os"
)

// New はJSONのloggerを返す。prod以外はDebugまで出す
func New(goEnv string) *slog.Logger {
	return NewWithWriter(os.Stdout, goEnv)
}

func NewWithWriter(w io.Writer, goEnv string) *slog.Logger {
	level := slog.LevelDebug
	if goEnv == "prod" {
		level = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h)
}
