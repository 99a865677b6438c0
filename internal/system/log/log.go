/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	logger *Logger
	once   sync.Once
)

// Logger wraps slog so callers log with Field values instead of raw key/value pairs.
type Logger struct {
	internal *slog.Logger
}

// Options selects the level, output format and destination of the process logger.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// GetLogger returns the process logger, falling back to text output at INFO when nothing was configured.
func GetLogger() *Logger {

	once.Do(func() {
		if logger == nil {
			logger = build(slog.LevelInfo, FormatText, os.Stdout)
		}
	})
	return logger
}

// Init configures a text logger on stdout at the given level.
func Init(logLevel string) error {
	return Configure(Options{Level: logLevel})
}

// InitWithWriter configures a text logger writing to w. The CLI uses it to keep stdout for results.
func InitWithWriter(logLevel string, w io.Writer) error {
	return Configure(Options{Level: logLevel, Output: w})
}

// Configure replaces the process logger.
func Configure(opts Options) error {

	level, err := parseLogLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unsupported log format: %s", opts.Format)
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	logger = build(level, format, out)
	return nil
}

func build(level slog.Level, format string, w io.Writer) *Logger {

	handlerOptions := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, handlerOptions)
	} else {
		handler = slog.NewTextHandler(w, handlerOptions)
	}
	return &Logger{internal: slog.New(handler)}
}

// With returns a child logger that adds fields to every record.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{
		internal: l.internal.With(convertFields(fields)...),
	}
}

// ForTenant is shorthand for With(Tenant(tenantId), extra...).
func (l *Logger) ForTenant(tenantId string, extra ...Field) *Logger {
	return l.With(append([]Field{Tenant(tenantId)}, extra...)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.internal.Info(msg, convertFields(fields)...)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.internal.Debug(msg, convertFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.internal.Warn(msg, convertFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.internal.Error(msg, convertFields(fields)...)
}

// Fatal logs at error level and exits with status 1.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.internal.Error(msg, convertFields(fields)...)
	os.Exit(1)
}

// parseLogLevel accepts slog level names (DEBUG, INFO, WARN, ERROR) in any case.
func parseLogLevel(logLevel string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return slog.LevelError, err
	}
	return level, nil
}

func convertFields(fields []Field) []any {
	attrs := make([]any, len(fields))
	for i, field := range fields {
		attrs[i] = slog.Any(field.Key, field.Value)
	}
	return attrs
}
