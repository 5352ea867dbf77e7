package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

type fitSummary struct {
	Kind   string
	Volume float64
	seed   int64
}

type meshRef struct {
	Name string
}

type jobSummary struct {
	index int
	Mesh  meshRef
	scale float64
}

// assertLogMatches reads one line and compares it to expected column by column. The timestamp is only
// checked for its width and the caller only for its file, so expected lines can carry any time and line
// number. Structured fields are compared as decoded JSON objects.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	line, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	got := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	want := strings.Split(expected, "\t")
	test.That(t, len(got), test.ShouldEqual, len(want))

	test.That(t, len(got[0]), test.ShouldEqual, len(want[0]))
	test.That(t, got[1], test.ShouldEqual, want[1])

	gotFile, gotLine, ok := strings.Cut(got[2], ":")
	test.That(t, ok, test.ShouldBeTrue)
	wantFile, _, ok := strings.Cut(want[2], ":")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, gotFile, test.ShouldEqual, wantFile)
	_, err = strconv.Atoi(gotLine)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, got[3], test.ShouldEqual, want[3])
	if len(got) == 4 {
		return
	}

	var gotFields, wantFields map[string]any
	test.That(t, json.Unmarshal([]byte(got[4]), &gotFields), test.ShouldBeNil)
	test.That(t, json.Unmarshal([]byte(want[4]), &wantFields), test.ShouldBeNil)
	test.That(t, gotFields, test.ShouldResemble, wantFields)
}

// The console appender emits tab separated lines: time, level, caller, message and, for the "w"
// API, a trailing JSON object of the structured fields.
//
// E.g:
//
//	2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:87	fitted mesh
func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("", DEBUG, false, NewWriterAppender(notStdout))

	logger.Info("fitted mesh")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:67	fitted mesh`)

	logger.Infof("fitted %s", "link1.stl")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:45:20.764-0400	INFO	logging/impl_test.go:131	fitted link1.stl`)

	logger.Infow("fitted mesh", "kind", "box")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:19:45.806-0400	INFO	logging/impl_test.go:132	fitted mesh	{"kind":"box"}`)

	// Only exported fields are serialized.
	logger.Infow("fit", "mesh", "link1.stl", "summary", fitSummary{"cylinder", 2.5, 42})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	INFO	logging/impl_test.go:121	fit	{"summary":{"Kind":"cylinder","Volume":2.5},"mesh":"link1.stl"}`)

	logger.Warnw("job", "job", jobSummary{3, meshRef{"base.stl"}, 0.001})
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	WARN	logging/impl_test.go:123	job	{"job":{"Mesh":{"Name":"base.stl"}}}`)

	// An unpaired key is still logged.
	logger.Errorw("unpaired", "orphan")
	assertLogMatches(t, notStdout,
		`2023-10-30T13:20:47.129-0400	ERROR	logging/impl_test.go:125	unpaired	{"orphan":"unpaired log key"}`)
}

func TestLevelFiltering(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("", WARN, false, NewWriterAppender(notStdout))

	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warn("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	WARN	logging/impl_test.go:67	kept`)

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debugf("now %s", "kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	logging/impl_test.go:67	now kept`)
}

func TestSubloggerNames(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("simplify").Sublogger("batch")
	sub.Infow("job done", "mesh", "link1.stl")

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "simplify.batch")
	test.That(t, entries[0].Message, test.ShouldEqual, "job done")
	test.That(t, entries[0].ContextMap()["mesh"], test.ShouldEqual, "link1.stl")
	test.That(t, logs.FilterMessage("job done").Len(), test.ShouldEqual, 1)

	test.That(t, sub.Sync(), test.ShouldBeNil)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"error"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
	test.That(t, level.AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "simplify.log")
	appender := NewFileAppender(path)
	logger := NewBlankLogger("urdf-simplify")
	logger.AddAppender(appender)

	logger.Infow("wrote hull", "mesh", "arm.stl")
	test.That(t, appender.Close(), test.ShouldBeNil)

	//nolint:gosec
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	line := strings.TrimSuffix(string(data), "\n")
	parts := strings.Split(line, "\t")
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "urdf-simplify")
	test.That(t, parts[4], test.ShouldEqual, "wrote hull")
	test.That(t, parts[5], test.ShouldEqual, `{"mesh":"arm.stl"}`)
}

func TestWithFields(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := newImpl("", DEBUG, false, NewWriterAppender(notStdout))
	tagged := logger.WithFields("mesh", "arm.stl")

	tagged.Info("loaded")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	INFO	logging/impl_test.go:67	loaded	{"mesh":"arm.stl"}`)

	tagged.WithFields("policy", "box").Debugw("fitted", "volume", 2)
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459-0400	DEBUG	logging/impl_test.go:67	fitted	{"mesh":"arm.stl","policy":"box","volume":2}`)

	// The derived logger follows the parent's level.
	logger.SetLevel(ERROR)
	tagged.Warn("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Info("dropped too")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)
}
