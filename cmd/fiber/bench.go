package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/demo"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/protocol"
	"github.com/vango-dev/fiber/pkg/remote"
	"github.com/vango-dev/fiber/pkg/server"
)

type benchConfig struct {
	Clients  int
	Duration time.Duration
	RPS      float64
	Items    int
	JSON     string
}

type benchCounters struct {
	eventsSent     atomic.Uint64
	eventsComplete atomic.Uint64
	eventBytes     atomic.Uint64
	batches        atomic.Uint64
	batchBytes     atomic.Uint64
	mutations      atomic.Uint64
	errors         atomic.Uint64
}

func benchCmd() *cobra.Command {
	cfg := benchConfig{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure event round trips against an in-process server",
		Long: `Start the todo demo on a loopback port, connect --clients replicas
and have each type into the entry field --rps times a second. A round
trip ends when the replica shows the typed value.

Examples:
  fiber bench
  fiber bench --clients=200 --duration=30s --json=bench.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadConfig()
			if err != nil {
				return err
			}
			if fc.Log.Level == "info" {
				fc.Log.Level = "warn"
			}
			logger := newLogger(fc)

			sc := fc.ServerConfig()
			sc.Host, sc.Port = "127.0.0.1", 0
			titles := make([]string, cfg.Items)
			for i := range titles {
				titles[i] = fmt.Sprintf("item %d", i+1)
			}
			srv, err := server.New(demo.App(titles...), sc, server.WithLogger(logger))
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), srv, cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVar(&cfg.Clients, "clients", 50, "Concurrent sessions")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 10*time.Second, "Run time")
	cmd.Flags().Float64Var(&cfg.RPS, "rps", 2, "Events per second per client")
	cmd.Flags().IntVar(&cfg.Items, "items", 20, "Todo items per session")
	cmd.Flags().StringVar(&cfg.JSON, "json", "", "Write the report as JSON to this path (- for stdout)")

	return cmd
}

func runBench(ctx context.Context, srv *server.Server, cfg benchConfig, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Clients < 1 || cfg.RPS <= 0 {
		return fmt.Errorf("bench: need at least one client and a positive rate")
	}

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	httpServer := &http.Server{Handler: srv.Handler()}
	go httpServer.Serve(ln)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		httpServer.Shutdown(shutdownCtx)
	}()

	wsURL := "ws://" + ln.Addr().String() + srv.Config().WSPath

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var (
		counters  benchCounters
		samplesMu sync.Mutex
		samples   []time.Duration
		wg        sync.WaitGroup
	)
	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	start := time.Now()
	wg.Add(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		clientID := i
		go func() {
			defer wg.Done()
			rtts, err := runBenchClient(runCtx, wsURL, clientID, cfg, &counters)
			if err != nil {
				counters.errors.Add(1)
			}
			samplesMu.Lock()
			samples = append(samples, rtts...)
			samplesMu.Unlock()
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	report := buildBenchReport(cfg, elapsed, samples, &counters, before, after)
	writeBenchSummary(w, report)
	if cfg.JSON != "" {
		return writeBenchJSON(cfg.JSON, report)
	}
	return nil
}

// benchClient is one replica connected to the server.
type benchClient struct {
	conn     *websocket.Conn
	replica  *remote.Replica
	counters *benchCounters
	writeErr error
}

func runBenchClient(ctx context.Context, wsURL string, clientID int, cfg benchConfig, counters *benchCounters) ([]time.Duration, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	c := &benchClient{conn: conn, replica: remote.NewReplica(nil), counters: counters}
	c.replica.OnEvent = func(ev protocol.Event) {
		data := protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(&ev)).Encode()
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			c.writeErr = err
			return
		}
		counters.eventsSent.Add(1)
		counters.eventBytes.Add(uint64(len(data)))
	}

	input := func() *memhost.Node {
		return c.replica.Document().Container().Find(func(n *memhost.Node) bool {
			return n.Kind == "input" && n.Props["type"] == "text"
		})
	}
	if err := c.readUntil(ctx, func() bool { return input() != nil }); err != nil {
		return nil, err
	}

	period := time.Duration(float64(time.Second) / cfg.RPS)
	var rtts []time.Duration
	for seq := 1; ; seq++ {
		if ctx.Err() != nil {
			return rtts, nil
		}
		token := fmt.Sprintf("c%d-%d", clientID, seq)
		begin := time.Now()
		c.replica.Fire(input(), "input", token)
		if c.writeErr != nil {
			return rtts, c.writeErr
		}
		if err := c.readUntil(ctx, func() bool { return input().Props["value"] == token }); err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				return rtts, nil
			}
			return rtts, err
		}
		rtts = append(rtts, time.Since(begin))
		counters.eventsComplete.Add(1)

		if sleep := period - time.Since(begin); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return rtts, nil
			case <-timer.C:
			}
		}
	}
}

// readUntil applies frames until done reports true or ctx ends.
func (c *benchClient) readUntil(ctx context.Context, done func() bool) error {
	for !done() {
		if deadline, ok := ctx.Deadline(); ok {
			c.conn.SetReadDeadline(deadline)
		}
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		f, err := protocol.DecodeFrame(msg)
		if err != nil {
			return err
		}
		switch f.Type {
		case protocol.FrameMutations:
			b, err := protocol.DecodeBatch(f.Payload)
			if err != nil {
				return err
			}
			if err := c.replica.Apply(b); err != nil {
				return err
			}
			c.counters.batches.Add(1)
			c.counters.batchBytes.Add(uint64(len(msg)))
			c.counters.mutations.Add(uint64(len(b.Mutations)))
		case protocol.FrameError:
			em, err := protocol.DecodeErrorMessage(f.Payload)
			if err != nil {
				return err
			}
			if em.Fatal {
				return fmt.Errorf("server: %s", em.Message)
			}
		}
	}
	return nil
}

// isTimeout reports a read that hit the run's deadline.
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Clients    int            `json:"clients"`
	DurationMS int64          `json:"duration_ms"`
	RPSClient  float64        `json:"rps_per_client"`
	Items      int            `json:"items"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	Protocol   protocolInfo   `json:"protocol"`
	GC         gcInfo         `json:"gc"`
	Errors     uint64         `json:"errors"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	EventsTotal  uint64  `json:"events_total"`
	EventsPerSec float64 `json:"events_per_sec"`
}

type protocolInfo struct {
	AvgEventBytes      float64 `json:"avg_event_bytes"`
	AvgBatchBytes      float64 `json:"avg_batch_bytes"`
	MutationsPerBatch  float64 `json:"mutations_per_batch"`
	BatchesTotal       uint64  `json:"batches_total"`
	MutationsTotal     uint64  `json:"mutations_total"`
	EventsWithoutReply uint64  `json:"events_without_reply"`
}

type gcInfo struct {
	AllocMB float64 `json:"alloc_mb"`
	NumGC   uint32  `json:"num_gc"`
	PauseMS float64 `json:"pause_total_ms"`
}

func ratio(a, b uint64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func buildBenchReport(cfg benchConfig, elapsed time.Duration, samples []time.Duration, c *benchCounters, before, after runtime.MemStats) benchReport {
	sent, complete := c.eventsSent.Load(), c.eventsComplete.Load()
	batches := c.batches.Load()
	r := benchReport{
		Version:    version,
		Clients:    cfg.Clients,
		DurationMS: elapsed.Milliseconds(),
		RPSClient:  cfg.RPS,
		Items:      cfg.Items,
		Throughput: throughputInfo{
			EventsTotal:  complete,
			EventsPerSec: float64(complete) / elapsed.Seconds(),
		},
		Protocol: protocolInfo{
			AvgEventBytes:     ratio(c.eventBytes.Load(), sent),
			AvgBatchBytes:     ratio(c.batchBytes.Load(), batches),
			MutationsPerBatch: ratio(c.mutations.Load(), batches),
			BatchesTotal:      batches,
			MutationsTotal:    c.mutations.Load(),
		},
		GC: gcInfo{
			AllocMB: float64(after.TotalAlloc-before.TotalAlloc) / (1 << 20),
			NumGC:   after.NumGC - before.NumGC,
			PauseMS: ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
		},
		Errors: c.errors.Load(),
	}
	if sent > complete {
		r.Protocol.EventsWithoutReply = sent - complete
	}
	if len(samples) > 0 {
		r.LatencyMS = latencyInfo{
			Min: ms(samples[0]),
			P50: ms(percentile(samples, 0.50)),
			P95: ms(percentile(samples, 0.95)),
			P99: ms(percentile(samples, 0.99)),
			Max: ms(samples[len(samples)-1]),
		}
	}
	return r
}

func writeBenchSummary(w io.Writer, r benchReport) {
	fmt.Fprintln(w, "=== fiber bench ===")
	fmt.Fprintf(w, "Clients: %d, %.2f events/s each, %d items\n", r.Clients, r.RPSClient, r.Items)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(r.DurationMS)*time.Millisecond)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Events: %d (%.1f/s), errors: %d\n", r.Throughput.EventsTotal, r.Throughput.EventsPerSec, r.Errors)
	if r.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "RTT (event -> commit -> batch applied):")
		fmt.Fprintf(w, "  min: %.2f ms\n", r.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.2f ms\n", r.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.2f ms\n", r.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.2f ms\n", r.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.2f ms\n", r.LatencyMS.Max)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batches: %d, %.1f bytes, %.2f mutations each\n",
		r.Protocol.BatchesTotal, r.Protocol.AvgBatchBytes, r.Protocol.MutationsPerBatch)
	fmt.Fprintf(w, "Events: %.1f bytes each\n", r.Protocol.AvgEventBytes)
	fmt.Fprintf(w, "GC: %d cycles, %.2f ms paused, %.2f MB allocated\n", r.GC.NumGC, r.GC.PauseMS, r.GC.AllocMB)
}

func writeBenchJSON(path string, r benchReport) error {
	var out io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
