// Package logging builds the console logger used by the tocsync CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Levels accepted by New.
const (
	LevelDebug  = "debug"
	LevelNormal = "normal"
	LevelNone   = "none"
)

// New returns a console logger writing info and debug records to stdout and
// errors to stderr. Level "none" discards everything.
func New(level string, stdout, stderr io.Writer) (*zap.Logger, error) {
	var low zapcore.Level
	switch level {
	case LevelDebug:
		low = zapcore.DebugLevel
	case LevelNormal, "":
		low = zapcore.InfoLevel
	case LevelNone:
		return zap.NewNop(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return low <= lvl && lvl < zapcore.ErrorLevel
	})
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder(stdout), zapcore.Lock(zapcore.AddSync(stdout)), lowPriority),
		zapcore.NewCore(consoleEncoder(stderr), zapcore.Lock(zapcore.AddSync(stderr)), highPriority),
	)
	return zap.New(core), nil
}

// Console is New on the process streams.
func Console(level string) (*zap.Logger, error) {
	return New(level, os.Stdout, os.Stderr)
}

func consoleEncoder(w io.Writer) zapcore.Encoder {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if colorOutput(w) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

func colorOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
