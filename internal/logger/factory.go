package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// wrapWriter decorates a raw destination with a log line layout.
type wrapWriter func(out io.Writer) io.Writer

func rawJSON(out io.Writer) io.Writer { return out }

func consoleLayout(color bool) wrapWriter {
	return func(out io.Writer) io.Writer {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !color}
	}
}

// WriterFactory creates writers based on format. Console output goes to
// stderr so command output on stdout stays clean.
type WriterFactory struct {
	console  io.Writer
	onScreen map[LogFormat]wrapWriter
	onDisk   map[LogFormat]wrapWriter
}

// NewWriterFactory creates a new writer factory
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{
		console: os.Stderr,
		onScreen: map[LogFormat]wrapWriter{
			FormatJSON:    rawJSON,
			FormatConsole: consoleLayout(true),
			FormatText:    consoleLayout(false),
		},
		// colors never go to files
		onDisk: map[LogFormat]wrapWriter{
			FormatJSON:    rawJSON,
			FormatConsole: consoleLayout(false),
			FormatText:    consoleLayout(false),
		},
	}
}

// CreateConsoleWriter creates a console writer
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat) io.Writer {
	wrap, ok := wf.onScreen[format]
	if !ok {
		wrap = wf.onScreen[FormatConsole]
	}
	return wrap(wf.console)
}

// CreateFileWriter creates a rotating file writer
func (wf *WriterFactory) CreateFileWriter(cfg LoggerConfig) io.Writer {
	// MkdirAll failure surfaces later as a lumberjack write error
	_ = os.MkdirAll(filepath.Dir(cfg.FilePath), 0755)

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}

	wrap, ok := wf.onDisk[cfg.Format]
	if !ok {
		wrap = rawJSON
	}
	return wrap(rotating)
}
