package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/risor-io/quarry/vm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// BenchResult holds benchmark statistics
type BenchResult struct {
	Iterations    int     `json:"iterations"`
	Warmup        int     `json:"warmup"`
	Fanout        int     `json:"fanout"`
	Solutions     int     `json:"solutions"`
	Frames        int     `json:"frames"`
	TotalNs       int64   `json:"total_ns"`
	TotalDuration string  `json:"total_duration"`
	OpsPerSec     float64 `json:"ops_per_sec"`
	MinNs         int64   `json:"min_ns"`
	MaxNs         int64   `json:"max_ns"`
	AvgNs         int64   `json:"avg_ns"`
	MedianNs      int64   `json:"median_ns"`
	P95Ns         int64   `json:"p95_ns"`
	P99Ns         int64   `json:"p99_ns"`
	Collections   uint64  `json:"collections"`
	PoolHits      uint64  `json:"pool_hits"`
	PoolMisses    uint64  `json:"pool_misses"`

	durations []time.Duration
}

type benchOptions struct {
	iterations int
	warmup     int
	fanout     int
	timeout    time.Duration
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark predicate evaluation with conjunction forking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			opts := benchOptions{}
			opts.iterations, _ = flags.GetInt("iterations")
			opts.warmup, _ = flags.GetInt("warmup")
			opts.fanout, _ = flags.GetInt("fanout")
			opts.timeout, _ = flags.GetDuration("timeout")
			output, _ := flags.GetString("output")

			result, err := runBench(cfg, opts, newLogger(cfg))
			if err != nil {
				return err
			}
			switch output {
			case "json":
				data, err := getOutputJSON(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			case "", "text":
				printBenchResult(cmd.OutOrStdout(), result)
				return nil
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}
		},
	}
	flags := cmd.Flags()
	flags.IntP("iterations", "n", 1000, "number of iterations")
	flags.IntP("warmup", "w", 100, "warmup iterations")
	flags.IntP("fanout", "f", 16, "conjunction clauses per predicate")
	flags.Duration("timeout", 0, "interrupt the benchmark after this long")
	flags.StringP("output", "o", "text", "output format (json, text)")
	return cmd
}

func runBench(cfg vm.Config, opts benchOptions, logger zerolog.Logger) (result BenchResult, err error) {
	if opts.iterations <= 0 {
		opts.iterations = 1000
	}
	if opts.warmup < 0 {
		opts.warmup = 100
	}
	if opts.fanout <= 0 {
		opts.fanout = 16
	}

	w := newWorkload(opts.fanout)
	w.logShape(logger)
	counter := &frameCounter{}
	options := append(cfg.Options(),
		vm.WithLogger(logger),
		vm.WithEvaluator(machine{}),
		vm.WithObserver(counter))
	interp := vm.NewInterpreter(options...)
	ts := vm.NewThreadState(interp)
	vm.AcquireThread(ts)
	defer vm.ReleaseThread(ts)
	defer func() {
		if closeErr := interp.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("interpreter teardown failed")
		}
	}()

	if opts.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		stop := interp.WatchContext(ctx)
		defer stop()
	}

	// First, verify the workload produces the expected solutions
	solutions, err := w.run(ts)
	if err != nil {
		return result, err
	}
	if solutions != w.expected() {
		return result, fmt.Errorf("workload produced %d solutions, expected %d", solutions, w.expected())
	}

	for i := 0; i < opts.warmup; i++ {
		if _, err := w.run(ts); err != nil {
			return result, err
		}
	}

	// Force GC before benchmark
	runtime.GC()
	counter.frames = 0

	var total time.Duration
	durations := make([]time.Duration, opts.iterations)
	for i := 0; i < opts.iterations; i++ {
		start := time.Now()
		n, err := w.run(ts)
		elapsed := time.Since(start)
		if err != nil {
			return result, err
		}
		solutions += n
		durations[i] = elapsed
		total += elapsed
	}
	logger.Debug().
		Int("iterations", opts.iterations).
		Dur("total", total).
		Msg("benchmark complete")

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	n := len(durations)
	pool := interp.Pool().Stats()
	result = BenchResult{
		Iterations:    opts.iterations,
		Warmup:        opts.warmup,
		Fanout:        opts.fanout,
		Solutions:     solutions - w.expected(),
		Frames:        counter.frames,
		TotalNs:       total.Nanoseconds(),
		TotalDuration: total.Round(time.Microsecond).String(),
		OpsPerSec:     float64(n) / total.Seconds(),
		MinNs:         durations[0].Nanoseconds(),
		MaxNs:         durations[n-1].Nanoseconds(),
		AvgNs:         (total / time.Duration(n)).Nanoseconds(),
		MedianNs:      durations[n/2].Nanoseconds(),
		P95Ns:         durations[int(float64(n)*0.95)].Nanoseconds(),
		P99Ns:         durations[int(float64(n)*0.99)].Nanoseconds(),
		Collections:   interp.Collections(),
		PoolHits:      pool.Hits,
		PoolMisses:    pool.Misses,
		durations:     durations,
	}
	return result, nil
}

func printBenchResult(out io.Writer, r BenchResult) {
	line := func(name string, v any) {
		fmt.Fprintf(out, "%s%s\n", label(fmt.Sprintf("%-13s", name+":")), value(fmt.Sprint(v)))
	}
	round := func(ns int64) time.Duration {
		return time.Duration(ns).Round(time.Microsecond)
	}

	fmt.Fprintln(out, title("RESULTS"))
	fmt.Fprintln(out, muted(strings.Repeat("-", 40)))
	line("Iterations", r.Iterations)
	line("Fanout", r.Fanout)
	line("Solutions", r.Solutions)
	line("Frames", r.Frames)
	line("Total time", r.TotalDuration)
	line("Ops/sec", fmt.Sprintf("%.2f", r.OpsPerSec))
	fmt.Fprintln(out)
	line("Min", round(r.MinNs))
	line("Max", round(r.MaxNs))
	line("Avg", round(r.AvgNs))
	line("Median", round(r.MedianNs))
	line("p95", round(r.P95Ns))
	line("p99", round(r.P99Ns))
	fmt.Fprintln(out)
	line("Collections", r.Collections)
	line("Pool hits", r.PoolHits)
	line("Pool misses", r.PoolMisses)

	if len(r.durations) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, title("DISTRIBUTION"))
		printHistogram(out, r.durations)
	}
}

func printHistogram(out io.Writer, durations []time.Duration) {
	minD := durations[0]
	maxD := durations[len(durations)-1]
	bucketCount := 10
	bucketSize := (maxD - minD) / time.Duration(bucketCount)
	if bucketSize == 0 {
		bucketSize = time.Microsecond
	}

	buckets := make([]int, bucketCount)
	for _, d := range durations {
		bucket := int((d - minD) / bucketSize)
		if bucket >= bucketCount {
			bucket = bucketCount - 1
		}
		buckets[bucket]++
	}
	maxCount := 0
	for _, count := range buckets {
		maxCount = max(maxCount, count)
	}

	barWidth := 30
	for i, count := range buckets {
		lower := minD + time.Duration(i)*bucketSize
		upper := lower + bucketSize
		barLen := 0
		if maxCount > 0 {
			barLen = count * barWidth / maxCount
		}
		bar := strings.Repeat("█", barLen) + strings.Repeat("░", barWidth-barLen)
		fmt.Fprintf(out, "%s%s%s\n",
			muted(fmt.Sprintf("%6v-%6v ", lower.Round(time.Microsecond), upper.Round(time.Microsecond))),
			value(bar),
			muted(fmt.Sprintf(" %d", count)))
	}
}
