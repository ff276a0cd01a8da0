package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/always-cache/gofetch"
	"github.com/always-cache/gofetch/store"
)

var (
	configFlag  string
	urlFlag     string
	methodFlag  string
	cacheFlag   string
	outFlag     string
	daemonFlag  bool
	traceFlag   bool
	headerFlags headerList
)

// headerList collects repeated -H "Name: value" flags, the same
// repeated-flag idiom net/http tooling (e.g. curl) uses.
type headerList []string

func (h *headerList) String() string { return strings.Join(*h, ",") }
func (h *headerList) Set(v string) error {
	*h = append(*h, v)
	return nil
}

func init() {
	flag.StringVar(&configFlag, "config", "", "YAML config file (optional; env vars always override)")
	flag.StringVar(&urlFlag, "url", "", "URL to fetch")
	flag.StringVar(&methodFlag, "method", http.MethodGet, "HTTP method")
	flag.StringVar(&cacheFlag, "cache", "default", "cache mode: default, no-store, reload, no-cache, force-cache, only-if-cached")
	flag.StringVar(&outFlag, "o", "", "write response body here instead of stdout")
	flag.BoolVar(&daemonFlag, "daemon", false, "stay resident, serving the debug endpoints and running scheduled GC instead of exiting after one fetch")
	flag.BoolVar(&traceFlag, "vv", false, "trace-level logging")
	flag.Var(&headerFlags, "H", "request header \"Name: value\" (repeatable)")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig(configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gofetch: could not load config:", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if traceFlag {
		level = zerolog.TraceLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).
		With().Timestamp().Str("component", "gofetch-cli").Logger()

	client := gofetch.NewClient()
	defer client.Close()

	var provider store.Provider
	var diskStore *store.DiskStore
	if cfg.CacheDir != "" {
		diskStore, err = store.OpenDiskStore(cfg.CacheDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.CacheDir).Msg("could not open disk cache")
		}
		defer diskStore.Close()
		provider = diskStore
	} else {
		provider = client.DefaultStore()
	}

	if daemonFlag {
		runDaemon(client, provider, diskStore, cfg)
		return
	}

	if urlFlag == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := runFetch(client, provider, cfg); err != nil {
		log.Fatal().Err(err).Msg("fetch failed")
	}
}

func runFetch(client *gofetch.Client, provider store.Provider, cfg Config) error {
	opts := &gofetch.Options{
		CacheManager: provider,
		Cache:        gofetch.CacheMode(cacheFlag),
		Method:       methodFlag,
		Headers:      parseHeaders(headerFlags),
		Proxy:        cfg.Proxy,
		MaxSockets:   cfg.MaxSockets,
	}

	res, err := client.Fetch(context.Background(), urlFlag, opts)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	log.Info().Int("status", res.StatusCode).Int("attempts", res.Attempts).Str("url", urlFlag).Msg("fetched")

	out := io.Writer(os.Stdout)
	if outFlag != "" {
		f, err := os.Create(outFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = io.Copy(out, res.Body)
	return err
}

func runDaemon(client *gofetch.Client, provider store.Provider, diskStore *store.DiskStore, cfg Config) {
	if diskStore != nil && cfg.GCSchedule != "" {
		c, err := startGC(diskStore, cfg.GCSchedule)
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.GCSchedule).Msg("could not schedule GC")
		}
		defer c.Stop()
	}

	var srv *http.Server
	if cfg.DebugAddr != "" {
		srv = &http.Server{Addr: cfg.DebugAddr, Handler: newDebugRouter(provider)}
		go func() {
			log.Info().Str("addr", cfg.DebugAddr).Msg("debug server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("debug server stopped")
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func parseHeaders(raw []string) http.Header {
	if len(raw) == 0 {
		return nil
	}
	h := make(http.Header, len(raw))
	for _, kv := range raw {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			continue
		}
		h.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	return h
}
