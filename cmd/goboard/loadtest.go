package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/MrEthical07/goBoard/session"
	"github.com/MrEthical07/goBoard/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type loadtestOptions struct {
	contexts    int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
}

func newLoadtestCmd() *cobra.Command {
	opts := loadtestOptions{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure session restore and update throughput against redis",
		Long: `loadtest seeds signed-in browser contexts in redis, then hydrates and updates
random contexts from many goroutines and reports latency percentiles.

Without --redis-addr (or REDIS_ADDR) an in-process miniredis is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.contexts <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
				return fmt.Errorf("contexts, concurrency, and ops must be > 0")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.contexts, "contexts", 10000, "number of browser contexts to seed")
	f.IntVar(&opts.concurrency, "concurrency", 128, "number of concurrent workers")
	f.IntVar(&opts.ops, "ops", 50000, "operations per phase (restore + update)")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	f.StringVar(&opts.prefix, "prefix", "gbload", "redis key prefix")
	return cmd
}

func runLoadtest(ctx context.Context, out io.Writer, opts loadtestOptions) error {
	addr := opts.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	backend := storage.NewRedis(client, opts.prefix, time.Hour)
	key := goBoard.DefaultConfig().Session.Key
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	open := func(id string) *session.Store {
		return session.NewStore(storage.Namespaced(backend, id), session.WithKey(key), session.WithLogger(quiet))
	}

	ids := make([]string, opts.contexts)
	fmt.Fprintf(out, "seeding %d contexts...\n", opts.contexts)
	startSeed := time.Now()
	for i := range ids {
		ids[i] = goBoard.NewContextID()
		st := open(ids[i])
		st.Initialize(ctx)
		st.Login(ctx, fmt.Sprintf("tok-%d", i), permission.Applicant, fmt.Sprintf("User %d", i), "")
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	restore := runPhase(opts, func(r *rand.Rand, _ int) bool {
		st := open(ids[r.Intn(len(ids))])
		st.Initialize(ctx)
		return st.Restored() == session.RestoreHydrated
	})
	update := runPhase(opts, func(r *rand.Rand, i int) bool {
		st := open(ids[r.Intn(len(ids))])
		st.Initialize(ctx)
		st.Update(ctx, "", fmt.Sprintf("Renamed %d", i), "")
		return !st.Current().IsAnonymous()
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "restore", restore)
	printStats(out, "update", update)
	return nil
}

// runPhase runs opts.ops calls of op across opts.concurrency workers. op reports
// whether the call succeeded.
func runPhase(opts loadtestOptions, op func(r *rand.Rand, i int) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opts.ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < opts.concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= opts.ops {
					return
				}
				t0 := time.Now()
				ok := op(r, i)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
