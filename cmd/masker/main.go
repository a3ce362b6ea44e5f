// Command masker applies a column-masking policy to a delimited or Excel
// file, streaming large inputs in fixed-size row batches so memory use stays
// bounded. It loads a job config (input, policy, output, runtime), optionally
// initializes a metrics backend, and executes the run.
//
// Typical usage:
//
//	masker -config configs/jobs/customers.json
//	masker -config configs/jobs/customers.json -validate
//	masker -config configs/jobs/customers.json -preview -preview-rows 20
//
// Tokenization state can be carried across sessions with -token-map (import
// before the run) and -token-map-out (export after). -policy-out writes the
// effective policy record as JSON for auditing.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tablekit/internal/config"
	"tablekit/internal/logging"
	"tablekit/internal/mask"
	"tablekit/internal/metrics"
	"tablekit/internal/metrics/datadog"
	"tablekit/internal/metrics/prompush"
	"tablekit/internal/stream"
	"tablekit/internal/table"
)

func main() {
	var (
		cfgPath       string
		validate      bool
		preview       bool
		previewRows   int
		tokenMapIn    string
		tokenMapOut   string
		policyOut     string
		metricsFlg    string
		pushURLFlg    string
		dogstatsdAddr string
		logLevel      string
		logFormat     string
	)

	flag.StringVar(&cfgPath, "config", "configs/jobs/sample.json", "job config JSON path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&preview, "preview", false, "mask a handful of rows and print them instead of running")
	flag.IntVar(&previewRows, "preview-rows", 20, "number of rows to show with -preview")
	flag.StringVar(&tokenMapIn, "token-map", "", "import a token map JSON before the run")
	flag.StringVar(&tokenMapOut, "token-map-out", "", "export the token map JSON after the run")
	flag.StringVar(&policyOut, "policy-out", "", "write the effective policy record JSON here")
	flag.StringVar(&metricsFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddr, "dogstatsd-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125 (overrides env DOGSTATSD_ADDR)")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "text", "log format: text, json")

	flag.Parse()

	logging.Setup(logLevel, logFormat)

	j, err := config.Load(cfgPath)
	if err != nil {
		fatalf("masker: %v", err)
	}

	issues := config.ValidateJob(j)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("masker: configuration is invalid: %s", cfgPath)
	}
	if validate {
		slog.Info("configuration is valid", "config", cfgPath)
		return
	}

	setupMetrics(metricsFlg, pushURLFlg, dogstatsdAddr, j.Job)
	defer func() {
		if err := metrics.Flush(); err != nil {
			slog.Warn("metrics flush failed", "err", err)
		}
	}()

	reg := mask.NewTokenRegistry()
	if tokenMapIn != "" {
		f, err := os.Open(tokenMapIn)
		if err != nil {
			fatalf("masker: open token map: %v", err)
		}
		err = reg.ImportJSON(f)
		f.Close()
		if err != nil {
			fatalf("masker: %v", err)
		}
		slog.Info("imported token map", "path", tokenMapIn, "entries", reg.Len())
	}

	readOpts := table.ReadOptions{
		Sheet:      j.Input.Sheet,
		HasHeader:  j.Input.HasHeader,
		LazyQuotes: j.Input.Options.Bool("lazy_quotes", false),
	}

	ctx := context.Background()

	if preview {
		if err := runPreview(ctx, j, reg, readOpts, previewRows); err != nil {
			fatalf("masker: preview: %v", err)
		}
		return
	}

	job := stream.Job{
		Name:      j.Job,
		InputPath: j.Input.Path,
		Policy:    j.Policy,
		ChunkSize: j.Runtime.ChunkSize,
		OutputDir: j.Output.Dir,
		Gzip:      j.Output.Gzip,
		ReadOpts:  readOpts,
	}

	sum, err := runWithProgress(ctx, job, reg)
	if err != nil {
		fatalf("masker: %v", err)
	}

	if tokenMapOut != "" {
		if err := writeTokenMap(reg, tokenMapOut); err != nil {
			fatalf("masker: %v", err)
		}
		slog.Info("exported token map", "path", tokenMapOut, "entries", reg.Len())
	}
	if policyOut != "" {
		if err := writePolicy(j.Policy, policyOut); err != nil {
			fatalf("masker: %v", err)
		}
	}

	slog.Info("run complete",
		"output", sum.OutputPath,
		"rows", sum.Rows,
		"batches", sum.Batches,
		"bytes", sum.OutputBytes,
		"fingerprint", fmt.Sprintf("%016x", sum.Fingerprint),
		"elapsed", sum.Elapsed.Truncate(time.Millisecond))
}

// runWithProgress wraps stream.Run with an advisory progress ticker: a
// companion goroutine logs the running row count every few seconds so long
// runs are visibly alive. The ticker never touches the data path.
func runWithProgress(ctx context.Context, job stream.Job, reg *mask.TokenRegistry) (stream.Summary, error) {
	var rows atomic.Int64
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return nil
			case <-t.C:
				slog.Info("progress", "rows", rows.Load())
			}
		}
	})

	var sum stream.Summary
	g.Go(func() error {
		defer close(done)
		var err error
		sum, err = stream.Run(gctx, job, reg, func(n int, _ time.Duration) {
			rows.Store(int64(n))
		})
		return err
	})

	err := g.Wait()
	return sum, err
}

// runPreview masks at most nrows rows in memory and prints them to stdout as
// CSV, header first. Nothing is written to the output directory.
func runPreview(ctx context.Context, j config.Job, reg *mask.TokenRegistry, opts table.ReadOptions, nrows int) error {
	masker, err := mask.NewMasker(j.Policy, reg)
	if err != nil {
		return err
	}
	t, err := table.ReadPreview(ctx, j.Input.Path, opts, nrows)
	if err != nil {
		return err
	}
	masker.Apply(t)

	w := csv.NewWriter(os.Stdout)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// setupMetrics installs the requested metrics backend: flag value, then
// environment, then disabled. A backend that fails to initialize downgrades
// to the no-op backend with a warning; metrics never block a run.
func setupMetrics(backendName, pushURL, dogAddr, jobName string) {
	switch backendName {
	case "pushgateway":
		if pushURL == "" {
			pushURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if pushURL == "" {
			pushURL = "http://localhost:9091"
		}
		if jobName == "" {
			jobName = "masker"
		}
		b, err := prompush.NewBackend(jobName, pushURL)
		if err != nil {
			slog.Warn("metrics: pushgateway init failed; using nop", "err", err)
			return
		}
		slog.Info("metrics enabled", "backend", backendName, "url", pushURL, "job", jobName)
		metrics.SetBackend(b)

	case "datadog":
		if dogAddr == "" {
			dogAddr = os.Getenv("DOGSTATSD_ADDR")
		}
		if dogAddr == "" {
			dogAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      dogAddr,
			Namespace: "tablekit.",
			GlobalTags: []string{
				"service:masker",
				"job:" + jobName,
			},
		})
		if err != nil {
			slog.Warn("metrics: datadog init failed; using nop", "err", err)
			return
		}
		slog.Info("metrics enabled", "backend", backendName, "addr", dogAddr, "job", jobName)
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		slog.Warn("metrics: unknown backend; metrics disabled", "backend", backendName)
	}
}

func writeTokenMap(reg *mask.TokenRegistry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create token map: %w", err)
	}
	if err := reg.ExportJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePolicy(p mask.Policy, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create policy record: %w", err)
	}
	if err := p.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
