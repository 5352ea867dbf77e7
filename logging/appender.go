package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the default time format string for log appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender will create human readable log lines on the wrapped writer.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that outputs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender creates a new appender that outputs to the input writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// FileAppender writes the same lines as a ConsoleAppender to a file that is rotated once it grows past
// maxLogFileMB megabytes.
type FileAppender struct {
	ConsoleAppender
	file *lumberjack.Logger
}

const (
	maxLogFileMB      = 20
	maxLogFileBackups = 3
)

// NewFileAppender creates an appender writing to the named file, creating it and its directory as needed.
func NewFileAppender(filename string) *FileAppender {
	file := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxLogFileMB,
		MaxBackups: maxLogFileBackups,
	}
	return &FileAppender{ConsoleAppender: ConsoleAppender{file}, file: file}
}

// Close closes the current log file.
func (appender *FileAppender) Close() error {
	return appender.file.Close()
}

// Write outputs the log entry to the underlying stream. Fields are rendered as a single JSON object
// trailing the message.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatEntry(entry, fields)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(appender.Writer, line)
	return err
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

func formatEntry(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	const maxLength = 10
	toPrint := make([]string, 0, maxLength)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))

	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	if entry.LoggerName != "" {
		toPrint = append(toPrint, entry.LoggerName)
	}
	if entry.Caller.Defined {
		toPrint = append(toPrint, callerToString(&entry.Caller))
	}
	toPrint = append(toPrint, entry.Message)
	if len(fields) == 0 {
		return strings.Join(toPrint, "\t"), nil
	}

	// Use zap's json encoder which will encode our slice of fields in-order. As opposed to the
	// random iteration order of a map. Call it with an empty Entry object such that only the fields
	// become "map-ified".
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(toPrint, "\t"), err
	}
	toPrint = append(toPrint, string(buf.Bytes()))
	return strings.Join(toPrint, "\t"), nil
}

// callerToString returns the last directory and file name of the caller, e.g: "logging/impl.go:42".
func callerToString(caller *zapcore.EntryCaller) string {
	return caller.TrimmedPath()
}
