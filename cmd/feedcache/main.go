// Command feedcache refreshes, inspects and maintains the local feed cache.
//
//	feedcache refresh    fetch FEEDCACHE_URL and replace the cached feed
//	feedcache load       print the cached feed as JSON while it is fresh
//	feedcache validate   delete the cached feed if it is unreadable or expired
//	feedcache clear      delete the cached feed
//
// Configuration comes from FEEDCACHE_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unkn0wn-root/feedcache"
	"github.com/unkn0wn-root/feedcache/internal/config"
	"github.com/unkn0wn-root/feedcache/remote"
	"github.com/unkn0wn-root/feedcache/store"
)

const usage = `usage: feedcache [-timeout d] <refresh|load|validate|clear>`

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	os.Exit(run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("feedcache", flag.ContinueOnError)
	fs.SetOutput(stderr)
	timeout := fs.Duration("timeout", time.Minute, "overall deadline for the command")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, usage)
		return 2
	}
	cmd := fs.Arg(0)
	switch cmd {
	case "refresh", "load", "validate", "clear":
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n%s\n", cmd, usage)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	log, closeLog, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			fmt.Fprintf(stderr, "Error: close store: %v\n", err)
		}
		<-st.Drained()
	}()

	hooks, closeHooks := newHooks(cfg, stderr)
	defer closeHooks()

	loader, err := feedcache.New(feedcache.Options{
		Store:  st,
		MaxAge: cfg.MaxAge,
		Logger: log,
		Hooks:  hooks,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer loader.Close()

	if err := dispatch(ctx, cmd, cfg, loader, st, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, cmd string, cfg config.Config, loader *feedcache.LocalLoader, st store.FeedStore, stdout io.Writer) error {
	switch cmd {
	case "refresh":
		if cfg.URL == "" {
			return errors.New("FEEDCACHE_URL is required")
		}
		client := remote.NewHTTPClient(cfg.UserAgent, &http.Client{Timeout: cfg.HTTPTimeout})
		items, err := remote.NewRemoteLoader(cfg.URL, client).LoadContext(ctx)
		if err != nil {
			return err
		}
		if err := loader.SaveContext(ctx, items); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "cached %d images\n", len(items))
		return nil

	case "load":
		items, err := loader.LoadContext(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)

	case "validate":
		return loader.ValidateContext(ctx)

	case "clear":
		return deleteSlot(ctx, st)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// deleteSlot empties the store directly; the loader only deletes as part of
// save and hygiene.
func deleteSlot(ctx context.Context, st store.FeedStore) error {
	ch := make(chan error, 1)
	st.Delete(func(err error) { ch <- err })
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
