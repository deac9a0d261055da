package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ytget/ytplayer"
	"github.com/ytget/ytplayer/internal/config"
	"github.com/ytget/ytplayer/internal/sanitize"
	"github.com/ytget/ytplayer/youtube/formats"
)

type options struct {
	format           string
	ext              string
	manifest         bool
	output           string
	durationFallback int64
	concurrency      int
}

func main() {
	var (
		opts        options
		flagMetrics string
	)

	flag.StringVar(&opts.format, "format", "", "Format selector (e.g., 'itag=22', 'best', 'height<=480')")
	flag.StringVar(&opts.ext, "ext", "", "Desired extension (e.g., 'mp4', 'webm')")
	flag.BoolVar(&opts.manifest, "manifest", false, "Print the DASH manifest instead of the stream URL")
	flag.StringVar(&opts.output, "output", "", "Directory to write manifests to (implies -manifest)")
	flag.Int64Var(&opts.durationFallback, "duration-fallback", 0, "Stream duration in seconds when the player response has none")
	flag.IntVar(&opts.concurrency, "concurrency", 1, "Videos processed in parallel")
	flag.Duration("http-timeout", 30*time.Second, "HTTP timeout (e.g., 30s, 1m); overrides "+config.EnvHTTPTimeout)
	flag.Int("retries", 3, "HTTP retries for transient errors; overrides "+config.EnvHTTPRetries)
	flag.String("ua", "", "Override User-Agent header; overrides "+config.EnvUserAgent)
	flag.String("proxy", "", "Proxy URL (http/https/socks); overrides "+config.EnvProxy)
	flag.StringVar(&flagMetrics, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <video_url>...\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if opts.output != "" {
		opts.manifest = true
		if err := os.MkdirAll(opts.output, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output dir: %v\n", err)
			os.Exit(1)
		}
	}

	for key, value := range envOverrides(flag.CommandLine) {
		if err := os.Setenv(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	var engineOpts []ytplayer.Option
	if flagMetrics != "" {
		engineOpts = append(engineOpts, ytplayer.WithMetrics(prometheus.NewRegistry()))
	}
	e, err := ytplayer.NewFromEnv(engineOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagMetrics != "" {
		srv := &http.Server{Addr: flagMetrics, Handler: e.MetricsHandler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	ctx := context.Background()
	failed := false
	var mu sync.Mutex

	jobs := make(chan string, len(args))
	var wg sync.WaitGroup
	wg.Add(opts.concurrency)
	for w := 0; w < opts.concurrency; w++ {
		go func() {
			defer wg.Done()
			for input := range jobs {
				out, err := process(ctx, e, opts, strings.TrimSpace(input))
				mu.Lock()
				if err != nil {
					failed = true
					fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", input, err)
				} else {
					_, _ = fmt.Fprintln(os.Stdout, out)
				}
				mu.Unlock()
			}
		}()
	}
	for _, a := range args {
		jobs <- a
	}
	close(jobs)
	wg.Wait()

	if failed {
		os.Exit(1)
	}
}

// flagEnv maps the HTTP flags onto the variables NewFromEnv reads.
var flagEnv = map[string]string{
	"http-timeout": config.EnvHTTPTimeout,
	"retries":      config.EnvHTTPRetries,
	"ua":           config.EnvUserAgent,
	"proxy":        config.EnvProxy,
}

// envOverrides returns the environment values of the HTTP flags that were
// set on the command line. Unset flags leave the environment alone.
func envOverrides(fs *flag.FlagSet) map[string]string {
	out := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagEnv[f.Name]; ok {
			out[key] = f.Value.String()
		}
	})
	return out
}

// process resolves the selected format of input and returns the line to
// print: the stream URL, the manifest, or the path the manifest went to.
func process(ctx context.Context, e *ytplayer.Engine, opts options, input string) (string, error) {
	id, err := ytplayer.ExtractVideoID(input)
	if err != nil {
		return "", err
	}
	list, err := e.Formats(ctx, id)
	if err != nil {
		return "", err
	}
	f := formats.Select(list, opts.format, opts.ext)
	if f == nil {
		return "", fmt.Errorf("no supported formats for %s", id)
	}
	if !opts.manifest {
		return e.ResolveURL(ctx, id, *f)
	}
	doc, err := e.Manifest(ctx, id, *f, opts.durationFallback)
	if err != nil {
		return "", err
	}
	if opts.output == "" {
		return doc, nil
	}
	path := filepath.Join(opts.output, sanitize.ManifestFilename(id, f.Item.ID))
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return "Saved: " + path, nil
}
