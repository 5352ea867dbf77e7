package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool
	// fields are attached to every entry, ahead of any per-call ones.
	fields    []zapcore.Field
	appenders []Appender
}

// LogEntry is a zapcore Entry together with its structured fields.
type LogEntry struct {
	zapcore.Entry
	fields []zapcore.Field
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

// Sublogger starts at the parent's current level but is adjusted independently afterwards.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		fields:    imp.fields,
		appenders: imp.appenders,
	}
}

// WithFields shares the level and appenders of the logger.
func (imp *impl) WithFields(keysAndValues ...interface{}) Logger {
	fields := make([]zapcore.Field, 0, len(imp.fields)+len(keysAndValues)/2)
	fields = append(fields, imp.fields...)
	fields = append(fields, toFields(keysAndValues)...)
	return &impl{
		name:      imp.name,
		level:     imp.level,
		inUTC:     imp.inUTC,
		fields:    fields,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var errs error
	for _, appender := range imp.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

func (imp *impl) shouldLog(level Level) bool {
	return GlobalLogLevel.Level() == zapcore.DebugLevel || level >= imp.level.Get()
}

// emit builds and writes an entry if the level is enabled. Every public logging method must call emit or
// emitFatal directly so that getCaller finds the caller at a fixed depth.
func (imp *impl) emit(level Level, fill func(*LogEntry)) {
	if !imp.shouldLog(level) {
		return
	}
	entry := imp.entry(level)
	fill(entry)
	imp.write(entry)
}

func (imp *impl) emitFatal(fill func(*LogEntry)) {
	entry := imp.entry(ERROR)
	fill(entry)
	imp.write(entry)
	os.Exit(1)
}

func (imp *impl) entry(level Level) *LogEntry {
	e := &LogEntry{}
	e.Time = time.Now()
	if imp.inUTC {
		e.Time = e.Time.UTC()
	}
	e.Level = level.AsZap()
	e.LoggerName = imp.name
	e.Caller = getCaller()
	e.fields = imp.fields
	return e
}

func (imp *impl) write(entry *LogEntry) {
	for _, appender := range imp.appenders {
		if err := appender.Write(entry.Entry, entry.fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

func sprint(args []interface{}) func(*LogEntry) {
	return func(e *LogEntry) {
		e.Message = fmt.Sprint(args...)
	}
}

func sprintf(template string, args []interface{}) func(*LogEntry) {
	return func(e *LogEntry) {
		e.Message = fmt.Sprintf(template, args...)
	}
}

func structured(msg string, keysAndValues []interface{}) func(*LogEntry) {
	return func(e *LogEntry) {
		e.Message = msg
		e.fields = append(append([]zapcore.Field{}, e.fields...), toFields(keysAndValues)...)
	}
}

// toFields pairs up alternating keys and values. Keys are rendered as strings, values are serialized as
// JSON so only exported struct fields appear. A trailing key without a value is kept with an error value.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		var key string
		if stringer, ok := keysAndValues[i].(fmt.Stringer); ok {
			key = stringer.String()
		} else {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
		}
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) {
	imp.emit(DEBUG, sprint(args))
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.emit(DEBUG, sprintf(template, args))
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.emit(DEBUG, structured(msg, keysAndValues))
}

func (imp *impl) Info(args ...interface{}) {
	imp.emit(INFO, sprint(args))
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.emit(INFO, sprintf(template, args))
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.emit(INFO, structured(msg, keysAndValues))
}

func (imp *impl) Warn(args ...interface{}) {
	imp.emit(WARN, sprint(args))
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.emit(WARN, sprintf(template, args))
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.emit(WARN, structured(msg, keysAndValues))
}

func (imp *impl) Error(args ...interface{}) {
	imp.emit(ERROR, sprint(args))
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.emit(ERROR, sprintf(template, args))
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.emit(ERROR, structured(msg, keysAndValues))
}

// The Fatal methods log at ERROR whatever the level, then exit the process.
func (imp *impl) Fatal(args ...interface{}) {
	imp.emitFatal(sprint(args))
}

func (imp *impl) Fatalf(template string, args ...interface{}) {
	imp.emitFatal(sprintf(template, args))
}

func (imp *impl) Fatalw(msg string, keysAndValues ...interface{}) {
	imp.emitFatal(structured(msg, keysAndValues))
}

// getCaller returns the location of the code that called a public logging method, which is four frames
// up: getCaller, entry, emit and the logging method itself.
func getCaller() zapcore.EntryCaller {
	const skip = 4
	var caller zapcore.EntryCaller
	var ok bool
	caller.PC, caller.File, caller.Line, ok = runtime.Caller(skip)
	if !ok {
		return caller
	}
	caller.Defined = true
	if fn := runtime.FuncForPC(caller.PC); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
