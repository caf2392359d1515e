// Package logrus adapts a *logrus.Entry to feedcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/feedcache"
)

var _ feedcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New wraps l with component=feedcache. A nil l uses logrus.StandardLogger.
func New(l *logrus.Logger) LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return LogrusLogger{E: l.WithField("component", "feedcache")}
}

func (l LogrusLogger) Debug(msg string, f feedcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f feedcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f feedcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f feedcache.Fields) { l.with(f).Error(msg) }

// with moves an "err" field to logrus' own error key.
func (l LogrusLogger) with(f feedcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			fields[logrus.ErrorKey] = err
			continue
		}
		fields[k] = v
	}
	return l.E.WithFields(fields)
}
