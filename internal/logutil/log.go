// Copyright 2025 Ekjot Singh
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logutil sets up the engine's two loggers: the general logrus
// logger used for lifecycle/tick/flush messages, and a zap-backed slow
// query logger used by query/service.go to record queries that cross the
// configured latency threshold.
package logutil

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	zaplog "github.com/pingcap/log"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFormat is the only format this package renders for the logrus
// facade; zap output is always its own bracketed format.
const DefaultLogFormat = "text"

// EmptyFileLogConfig means "write to stderr", i.e. no rotating file sink.
const EmptyFileLogConfig = ""

// LogConfig configures both loggers built by InitLogger/InitZapLogger.
type LogConfig struct {
	Level       string
	Format      string
	File        string
	FileConfig  string
	DisableTime bool
	KeepOrder   bool
}

// NewLogConfig builds a LogConfig; keepOrder controls whether the textFormatter
// sorts structured fields alphabetically before rendering them.
func NewLogConfig(level, format, file, fileConfig string, keepOrder bool) *LogConfig {
	return &LogConfig{
		Level:      level,
		Format:     format,
		File:       file,
		FileConfig: fileConfig,
		KeepOrder:  keepOrder,
	}
}

// SlowQueryLogger is the logrus-facing slow query sink.
var SlowQueryLogger = logrus.New()

// SlowQueryZapLogger is the zap-facing slow query sink.
var SlowQueryZapLogger *zap.Logger = zap.NewNop()

func stringToLogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "fatal":
		return logrus.FatalLevel
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	}
	return logrus.InfoLevel
}

func stringToZapLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "fatal":
		return zapcore.FatalLevel
	case "error":
		return zapcore.ErrorLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	}
	return zapcore.InfoLevel
}

// textFormatter renders logrus entries in the "2006/01/02 15:04:05.000
// file.go:123: [level] message key=value ..." shape expected of a
// non-JSON logger.
type textFormatter struct {
	DisableTimestamp bool
	EnableEntryOrder bool
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006/01/02 15:04:05.000 "))
	}
	if entry.Caller != nil {
		fmt.Fprintf(&b, "%s:%d: ", entry.Caller.File, entry.Caller.Line)
	}
	fmt.Fprintf(&b, "[%s] %s", levelTag(entry.Level), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	if f.EnableEntryOrder {
		sort.Strings(keys)
	}
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func levelTag(l logrus.Level) string {
	switch l {
	case logrus.FatalLevel:
		return "fatal"
	case logrus.ErrorLevel:
		return "error"
	case logrus.WarnLevel:
		return "warning"
	case logrus.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}

// InitLogger wires the package-level logrus standard logger (the one
// lifecycle code calls via logrus.Infof/Warnf/...) according to cfg.
func InitLogger(cfg *LogConfig) error {
	logrus.SetLevel(stringToLogLevel(cfg.Level))
	logrus.SetFormatter(&textFormatter{DisableTimestamp: cfg.DisableTime, EnableEntryOrder: cfg.KeepOrder})
	logrus.SetReportCaller(true)

	out, err := openSink(cfg.File)
	if err != nil {
		return err
	}
	logrus.SetOutput(out)
	return nil
}

// InitZapLogger wires the general zap logger (zaplog, from
// github.com/pingcap/log) and the SlowQueryZapLogger sink according to cfg.
func InitZapLogger(cfg *LogConfig) error {
	level := stringToZapLevel(cfg.Level)
	atom := zap.NewAtomicLevelAt(level)

	out, err := openSink(cfg.File)
	if err != nil {
		return err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000 -07:00")
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(out), atom)

	logger := zap.New(core, zap.AddCaller())
	SlowQueryZapLogger = logger
	zaplog.ReplaceGlobals(logger, &zaplog.ZapProperties{
		Core:   core,
		Syncer: zapcore.AddSync(out),
		Level:  atom,
	})
	return nil
}

// SetLevel adjusts the level of the most recently initialized zap logger.
func SetLevel(level string) error {
	zaplog.SetLevel(stringToZapLevel(level))
	return nil
}

func openSink(file string) (*os.File, error) {
	if file == "" {
		return os.Stderr, nil
	}
	return os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// SlowQueryEntry is the structured record the query service feeds to the
// slow query loggers.
type SlowQueryEntry struct {
	SQL          string
	ScannedRows  int64
	MatchedRows  int64
	ElapsedNanos time.Duration
}

// LogSlowQuery writes one record to both slow-query sinks; the logrus sink
// keeps the plain-text convention the rest of the codebase already reads,
// the zap sink carries structured fields for anything consuming JSON-ish
// output.
func LogSlowQuery(e SlowQueryEntry) {
	SlowQueryLogger.WithFields(logrus.Fields{
		"scannedRows": e.ScannedRows,
		"matchedRows": e.MatchedRows,
		"elapsedMs":   e.ElapsedNanos.Milliseconds(),
	}).Warnf("slow query: %s", e.SQL)

	SlowQueryZapLogger.Warn("slow query",
		zap.String("sql", e.SQL),
		zap.Int64("scannedRows", e.ScannedRows),
		zap.Int64("matchedRows", e.MatchedRows),
		zap.Duration("elapsed", e.ElapsedNanos),
	)
}
