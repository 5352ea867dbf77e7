package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"go.viam.com/collisionsimplify/logging"
)

// printer writes the human readable progress of a command.
type printer struct {
	out io.Writer
}

var (
	noticeColor  = color.New(color.FgBlue)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
)

func (p printer) infof(format string, a ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

func (p printer) noticef(format string, a ...interface{}) {
	//nolint:errcheck
	noticeColor.Fprintf(p.out, format+"\n", a...)
}

func (p printer) warningf(format string, a ...interface{}) {
	//nolint:errcheck
	warningColor.Fprintf(p.out, "  Warning: "+format+"\n", a...)
}

func (p printer) successf(format string, a ...interface{}) {
	//nolint:errcheck
	successColor.Fprintf(p.out, format+"\n", a...)
}

// diff prints the lines that differ between before and after, removals prefixed with "- " and additions
// with "+ ".
func (p printer) diff(before, after string) {
	for _, line := range lineDiff(before, after) {
		switch {
		case strings.HasPrefix(line, "- "):
			//nolint:errcheck
			errorColor.Fprintln(p.out, line)
		case strings.HasPrefix(line, "+ "):
			//nolint:errcheck
			successColor.Fprintln(p.out, line)
		default:
			fmt.Fprintln(p.out, line)
		}
	}
}

func lineDiff(before, after string) []string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []string
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, prefix+line)
		}
	}
	return out
}

// newCommandLogger returns a logger writing to w and, when logFile is set, to a rotated file. The returned
// function flushes and closes the file.
func newCommandLogger(w io.Writer, name string, debug bool, logFile string) (logging.Logger, func()) {
	logger := logging.NewBlankLogger(name)
	logger.AddAppender(logging.NewWriterAppender(w))
	if !debug {
		logger.SetLevel(logging.INFO)
	}
	closer := func() {}
	if logFile != "" {
		appender := logging.NewFileAppender(logFile)
		logger.AddAppender(appender)
		closer = func() {
			//nolint:errcheck
			logger.Sync()
			//nolint:errcheck
			appender.Close()
		}
	}
	return logger, closer
}
