// Command glyphforge renders a batch of text rasterization jobs.
//
// It reads a batch spec (JSON) from stdin or a file and
// streams one result per line (JSONL) to stdout in completion order.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/glyphforge/glyphforge"
)

func main() {
	var (
		input      = flag.String("input", "-", "batch spec file, - for stdin")
		output     = flag.String("output", "-", "results file, - for stdout")
		fontDir    = flag.String("font-dir", "", "restrict font paths to this directory")
		workers    = flag.Int("workers", 0, "parallel render workers, 0 for GOMAXPROCS")
		timeout    = flag.Duration("job-timeout", 0, "per-job timeout, 0 to disable")
		fontCache  = flag.Int("font-cache", glyphforge.DefaultFontCacheSize, "font instance cache capacity")
		glyphCache = flag.Int("glyph-cache", glyphforge.DefaultGlyphCacheSize, "rendered glyph cache capacity")
		verbose    = flag.Bool("verbose", false, "log progress to stderr")
	)
	flag.Parse()

	if *verbose {
		glyphforge.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	data, err := readInput(*input)
	if err != nil {
		log.Fatalf("read batch: %v", err)
	}
	batch, err := glyphforge.ParseBatch(data)
	if err != nil {
		log.Fatalf("parse batch: %v", err)
	}

	out, closeOut, err := openOutput(*output)
	if err != nil {
		log.Fatalf("open output: %v", err)
	}
	defer closeOut()

	var opts []glyphforge.Option
	if *fontDir != "" {
		opts = append(opts, glyphforge.WithBaseDir(*fontDir))
	}
	if *workers > 0 {
		opts = append(opts, glyphforge.WithWorkers(*workers))
	}
	if *timeout > 0 {
		opts = append(opts, glyphforge.WithJobTimeout(*timeout))
	}
	opts = append(opts,
		glyphforge.WithFontCacheSize(*fontCache),
		glyphforge.WithGlyphCacheSize(*glyphCache),
	)
	engine := glyphforge.NewEngine(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := engine.ProcessJobs(ctx, batch)
	if err != nil {
		log.Fatalf("batch rejected: %v", err)
	}
	n, err := glyphforge.WriteResults(out, results)
	if err != nil {
		log.Fatalf("write results: %v", err)
	}
	if *verbose {
		log.Printf("rendered %d jobs in %s", n, time.Since(start).Round(time.Millisecond))
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
