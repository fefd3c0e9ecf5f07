package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shammianand/expiringcache"
	"github.com/shammianand/expiringcache/internal/config"
)

func newDemoCmd() *cobra.Command {
	var (
		cfgFile  string
		ttl      time.Duration
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write entries, wait past their TTL and read them back",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ttl") {
				cfg.TTL = ttl
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDemo(ctx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	cmd.Flags().DurationVar(&ttl, "ttl", 5*time.Second, "entry time-to-live")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

// lockedWriter serializes writes from the caller and the sweep goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func runDemo(ctx context.Context, cfg *config.Config, w io.Writer) error {
	out := &lockedWriter{w: w}
	cache, err := expiringcache.New[string, string](cfg.TTL, expiringcache.Options[string, string]{
		LogLevel: cfg.LogLevel,
		EvictCallback: func(key, value string) {
			fmt.Fprintf(out, "evicted %s=%q\n", key, value)
		},
	})
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer cache.Close()

	fmt.Fprintf(out, "ttl: %s\n", cache.TTL())
	for _, e := range cfg.Entries {
		cache.Put(e.Key, e.Value)
	}
	for _, e := range cfg.Entries {
		fmt.Fprintf(out, "initial %s: %s\n", e.Key, describe(cache.GetOption(e.Key).Get()))
	}

	wait := time.NewTimer(cfg.TTL + cfg.TTL/5)
	defer wait.Stop()
	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "interrupted")
		return nil
	case <-wait.C:
	}

	for _, e := range cfg.Entries {
		fmt.Fprintf(out, "after expiration %s: %s\n", e.Key, describe(cache.GetOption(e.Key).Get()))
	}
	fmt.Fprintf(out, "entries left: %d\n", cache.Len())
	return nil
}

func describe(value string, ok bool) string {
	if !ok {
		return "<absent>"
	}
	return fmt.Sprintf("%q", value)
}
