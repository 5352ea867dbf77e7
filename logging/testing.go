package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// tbAppender routes log lines through testing.TB so they are grouped with the test that wrote them.
type tbAppender struct {
	tb testing.TB
}

// NewTestAppender returns an Appender that writes each entry with tb.Log.
func NewTestAppender(tb testing.TB) Appender {
	return &tbAppender{tb: tb}
}

func (app *tbAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	app.tb.Helper()
	line, err := formatEntry(entry, fields)
	app.tb.Log(line)
	return err
}

// Sync does nothing; tb.Log is unbuffered.
func (app *tbAppender) Sync() error {
	return nil
}
