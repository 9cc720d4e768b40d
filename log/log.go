// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger is the logging surface used across the module.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
}

// WithContext returns a logger carrying ctx. It resolves the default logger on every
// call, so package level loggers follow later SetDefault calls.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

type lazyLogger struct {
	ctx []any
}

func (l *lazyLogger) root() ethlog.Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &lazyLogger{ctx: append(merged, ctx...)}
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { l.root().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.root().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.root().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.root().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.root().Error(msg, ctx...) }
func (l *lazyLogger) Crit(msg string, ctx ...any)  { l.root().Crit(msg, ctx...) }

// SetDefault installs h as the handler of the default logger.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Root returns the current default logger.
func Root() Logger {
	return &lazyLogger{}
}

// Formats accepted by NewHandler.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatLogfmt   = "logfmt"
)

// NewHandler creates a handler writing records of the given format to w, filtered
// by verbosity (0 crit .. 5 trace). color only applies to the terminal format.
func NewHandler(w io.Writer, format string, verbosity int, color bool) (slog.Handler, error) {
	var h slog.Handler
	switch strings.ToLower(format) {
	case "", FormatTerminal:
		h = ethlog.NewTerminalHandler(w, color)
	case FormatJSON:
		h = ethlog.JSONHandler(w)
	case FormatLogfmt:
		h = ethlog.LogfmtHandler(w)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	glog := ethlog.NewGlogHandler(h)
	glog.Verbosity(ethlog.FromLegacyLevel(verbosity))
	return glog, nil
}

// DiscardHandler returns a handler dropping every record.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}
