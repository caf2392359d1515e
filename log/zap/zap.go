// Package zap adapts a *zap.Logger to feedcache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/feedcache"
)

var _ feedcache.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New wraps l, tagging every entry with component=feedcache. A nil l
// yields a no-op logger.
func New(l *zap.Logger) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapLogger{L: l.With(zap.String("component", "feedcache"))}
}

func (z ZapLogger) Debug(msg string, f feedcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f feedcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f feedcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f feedcache.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order; errors become zap.NamedError so they keep
// zap's error encoding.
func zf(f feedcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
