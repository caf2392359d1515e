package main

import (
	"context"
	"fmt"
	"io"
	stdslog "log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/feedcache"
	asynchook "github.com/unkn0wn-root/feedcache/hooks/async"
	"github.com/unkn0wn-root/feedcache/internal/config"
	"github.com/unkn0wn-root/feedcache/internal/util"
	logruslog "github.com/unkn0wn-root/feedcache/log/logrus"
	slogadapter "github.com/unkn0wn-root/feedcache/log/slog"
	zaplog "github.com/unkn0wn-root/feedcache/log/zap"
	pr "github.com/unkn0wn-root/feedcache/provider"
	"github.com/unkn0wn-root/feedcache/provider/file"
	"github.com/unkn0wn-root/feedcache/provider/redis"
	"github.com/unkn0wn-root/feedcache/provider/sqlite"
	"github.com/unkn0wn-root/feedcache/sloghooks"
	"github.com/unkn0wn-root/feedcache/store/slot"
)

func slogLevel(level string) stdslog.Level {
	switch level {
	case "debug":
		return stdslog.LevelDebug
	case "warn":
		return stdslog.LevelWarn
	case "error":
		return stdslog.LevelError
	default:
		return stdslog.LevelInfo
	}
}

func newSlog(cfg config.Config, w io.Writer) *stdslog.Logger {
	opts := &stdslog.HandlerOptions{Level: slogLevel(cfg.LogLevel)}
	if cfg.LogFormat == "json" {
		return stdslog.New(stdslog.NewJSONHandler(w, opts))
	}
	return stdslog.New(stdslog.NewTextHandler(w, opts))
}

// newLogger builds the feedcache.Logger named by FEEDCACHE_LOG_FORMAT.
// The returned func flushes buffered output.
func newLogger(cfg config.Config, w io.Writer) (feedcache.Logger, func(), error) {
	switch cfg.LogFormat {
	case "zap":
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		zl := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
		return zaplog.New(zl), func() { _ = zl.Sync() }, nil

	case "logrus":
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		ll := logrus.New()
		ll.SetOutput(w)
		ll.SetLevel(level)
		return logruslog.New(ll), func() {}, nil

	default:
		return slogadapter.New(newSlog(cfg, w)), func() {}, nil
	}
}

// newHooks reports loader events through slog off the completion goroutine.
func newHooks(cfg config.Config, w io.Writer) (feedcache.Hooks, func()) {
	raw := sloghooks.New(newSlog(cfg, w), sloghooks.Options{Store: cfg.Provider})
	h := asynchook.New(raw, 1, 256)
	return h, h.Close
}

// openStore opens the configured provider behind a slot store.
func openStore(ctx context.Context, cfg config.Config, log feedcache.Logger) (*slot.Store, error) {
	p, err := openProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := []slot.Option{slot.WithQueueSize(cfg.QueueSize), slot.WithLogger(log)}
	switch cfg.Codec {
	case "json":
		opts = append(opts, slot.WithJSON())
	case "msgpack":
		opts = append(opts, slot.WithMsgpack())
	case "proto":
		opts = append(opts, slot.WithProto())
	default:
		opts = append(opts, slot.WithCBOR())
	}
	return slot.New(p, opts...), nil
}

func openProvider(ctx context.Context, cfg config.Config) (pr.Provider, error) {
	key := util.SlotKey(cfg.RedisKey, cfg.URL)
	switch cfg.Provider {
	case "sqlite":
		return sqlite.Open(ctx, cfg.Path)
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return redis.New(redis.Config{Client: rdb, Key: key, CloseClient: true})
	default:
		return file.New(file.Config{Path: cfg.Path, Perm: 0o600, MkdirAll: true})
	}
}
