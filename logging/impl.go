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

	appenders []Appender
	registry  *Registry
}

// callerDepth is how many frames separate getCaller from the code that called a Logger method:
// getCaller, entry, logf or logw, and the exported method.
const callerDepth = 4

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	// The registry applies any matching pattern; otherwise the parent's level is inherited. When
	// two callers race, both get the instance that made it into the registry.
	return imp.registry.getOrRegister(name, &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
		registry:  imp.registry,
	})
}

func (imp *impl) Sync() error {
	var errs error
	for _, appender := range imp.appenders {
		errs = multierr.Combine(errs, appender.Sync())
	}
	return errs
}

// enabled reports whether an entry at level is written. The global debug switch overrides the
// logger's own level.
func (imp *impl) enabled(level Level) bool {
	return GlobalLogLevel.Get() == DEBUG || level >= imp.level.Get()
}

func (imp *impl) entry(level Level, msg string) zapcore.Entry {
	now := time.Now()
	if imp.inUTC {
		now = now.UTC()
	}
	return zapcore.Entry{
		Level:      level.AsZap(),
		Time:       now,
		LoggerName: imp.name,
		Message:    msg,
		Caller:     getCaller(),
	}
}

func (imp *impl) write(entry zapcore.Entry, fields []zapcore.Field) {
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func (imp *impl) logf(level Level, template string, args []interface{}) {
	if !imp.enabled(level) {
		return
	}
	imp.write(imp.entry(level, fmt.Sprintf(template, args...)), nil)
}

func (imp *impl) logw(level Level, msg string, keysAndValues []interface{}) {
	if !imp.enabled(level) {
		return
	}
	imp.write(imp.entry(level, msg), pairsToFields(keysAndValues))
}

// pairsToFields turns alternating keys and values into zap fields. Values are serialized as JSON,
// so only exported struct fields show up. A trailing key without a value is kept with an error
// value rather than dropped.
func pairsToFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (imp *impl) Debugf(template string, args ...interface{}) { imp.logf(DEBUG, template, args) }

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) { imp.logw(DEBUG, msg, keysAndValues) }

func (imp *impl) Infof(template string, args ...interface{}) { imp.logf(INFO, template, args) }

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) { imp.logw(INFO, msg, keysAndValues) }

func (imp *impl) Warnf(template string, args ...interface{}) { imp.logf(WARN, template, args) }

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) { imp.logw(WARN, msg, keysAndValues) }

func (imp *impl) Errorf(template string, args ...interface{}) { imp.logf(ERROR, template, args) }

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) { imp.logw(ERROR, msg, keysAndValues) }

func (imp *impl) Fatal(args ...interface{}) {
	imp.logf(ERROR, "%s", []interface{}{fmt.Sprint(args...)})
	os.Exit(1)
}

// getCaller returns the file and line of the code that called the Logger, e.g.
// "logging/impl_test.go:36" once trimmed by the appender.
func getCaller() zapcore.EntryCaller {
	var caller zapcore.EntryCaller
	var ok bool
	caller.PC, caller.File, caller.Line, ok = runtime.Caller(callerDepth)
	if !ok {
		return caller
	}
	caller.Defined = true
	if fn := runtime.FuncForPC(caller.PC); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
