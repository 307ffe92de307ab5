// Command journey-loadtest drives many authentication journeys against an
// in-process journey server and reports throughput and latency.
//
// The scenario is described in YAML:
//
//	journeys: 5000
//	concurrency: 64
//	steps: 3
//	failureRate: 0.05
//	redisAddr: ""
//
// With no -scenario flag a built-in default scenario runs. With no Redis
// address, miniredis is started in process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goJourney "github.com/MrEthical07/goJourney"
	"github.com/MrEthical07/goJourney/restclient"
	"github.com/MrEthical07/goJourney/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type scenario struct {
	Journeys    int     `yaml:"journeys"`
	Concurrency int     `yaml:"concurrency"`
	Steps       int     `yaml:"steps"`
	FailureRate float64 `yaml:"failureRate"`
	RedisAddr   string  `yaml:"redisAddr"`
}

func defaultScenario() scenario {
	return scenario{
		Journeys:    5000,
		Concurrency: 64,
		Steps:       3,
		FailureRate: 0.05,
	}
}

func main() {
	scenarioPath := flag.String("scenario", "", "path to a YAML scenario file")
	flag.Parse()

	sc := defaultScenario()
	if *scenarioPath != "" {
		data, err := os.ReadFile(*scenarioPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading scenario: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &sc); err != nil {
			fmt.Fprintf(os.Stderr, "parsing scenario: %v\n", err)
			os.Exit(1)
		}
	}
	if sc.Journeys <= 0 || sc.Concurrency <= 0 || sc.Steps <= 0 {
		fmt.Fprintln(os.Stderr, "journeys, concurrency, and steps must be > 0")
		os.Exit(2)
	}

	addr := sc.RedisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var client *redis.Client
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "starting miniredis: %v\n", err)
			os.Exit(1)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}
	client = redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	server := newJourneyServer(sc.Steps, sc.FailureRate)
	defer server.Close()

	stats, err := runJourneys(context.Background(), sc, server.URL, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("---- results ----")
	printStats(stats)
}

// runJourneys fans sc.Journeys full journeys out over sc.Concurrency
// workers, each worker owning its engine and session subject.
func runJourneys(ctx context.Context, sc scenario, baseURL string, client *redis.Client) (runStats, error) {
	var (
		cursor    int64
		failures  int64
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, sc.Journeys)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.Concurrency)

	start := time.Now()
	for w := 0; w < sc.Concurrency; w++ {
		worker := w
		g.Go(func() error {
			store := session.NewStore(client, "aj-load", time.Hour).
				WithSubject("worker-" + strconv.Itoa(worker))

			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= sc.Journeys {
					return nil
				}

				t0 := time.Now()
				ok, err := runOneJourney(ctx, baseURL, store)
				d := time.Since(t0)
				if err != nil {
					return err
				}
				if !ok {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return runStats{}, err
	}

	return computeStats(time.Since(start), latencies, failures), nil
}

// runOneJourney drives a single journey to a terminal outcome. Returns
// false when the journey ended in a fatal error.
func runOneJourney(ctx context.Context, baseURL string, store goJourney.SessionStore) (bool, error) {
	transport, err := restclient.NewClient(restclient.Config{BaseURL: baseURL})
	if err != nil {
		return false, err
	}

	cfg := goJourney.DefaultConfig()
	cfg.PostAuth.Enabled = false
	cfg.Audit.Enabled = false
	cfg.Metrics.Enabled = false

	engine, err := goJourney.New().
		WithConfig(cfg).
		WithTransport(transport).
		WithSessionStore(store).
		Build()
	if err != nil {
		return false, err
	}
	defer engine.Close()

	outcome, err := engine.Start(ctx, goJourney.IntentLogin)
	if err != nil {
		return false, err
	}

	for outcome.Kind == goJourney.OutcomeNeedsStep || outcome.Kind == goJourney.OutcomeFormError {
		step := outcome.Step
		if step == nil {
			step = engine.CurrentStep()
		}
		if step == nil {
			return false, fmt.Errorf("no step to submit")
		}
		step.Payload["input"] = "value"

		outcome, err = engine.Submit(ctx, step)
		if err != nil {
			return false, err
		}
	}

	return outcome.Kind == goJourney.OutcomeAuthenticated, nil
}

// newJourneyServer simulates a step-exchange server: each submission
// advances stage N to N+1 until the configured depth, then completes.
// A slice of submissions fail to exercise the engine's retry path.
func newJourneyServer(steps int, failureRate float64) *httptest.Server {
	var submits int64
	rng := rand.New(rand.NewSource(42))
	var rngMu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Stage string `json:"stage"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		// Starts carry no stage; submissions do.
		if body.Stage != "" {
			atomic.AddInt64(&submits, 1)
			rngMu.Lock()
			fail := rng.Float64() < failureRate
			rngMu.Unlock()
			if fail {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"message":"transient validation failure"}`)
				return
			}
		}

		next := 1
		if body.Stage != "" {
			n, _ := strconv.Atoi(body.Stage)
			next = n + 1
		}
		if next > steps {
			fmt.Fprint(w, `{"type":"LoginSuccess","sessionToken":"st-load"}`)
			return
		}
		fmt.Fprintf(w, `{"stage":"%d","callbacks":[],"payload":{"authId":"a-%d"}}`, next, next)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"sub":"load-user"}`)
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux)
}

type runStats struct {
	total    time.Duration
	journeys int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	perSec   float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) runStats {
	if len(samples) == 0 {
		return runStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return runStats{
		total:    total,
		journeys: len(samples),
		failures: failures,
		p50:      samples[len(samples)*50/100],
		p95:      samples[len(samples)*95/100],
		p99:      samples[len(samples)*99/100],
		perSec:   float64(len(samples)) / total.Seconds(),
	}
}

func printStats(s runStats) {
	fmt.Printf("journeys: %d in %s (%.0f/s)\n", s.journeys, s.total.Round(time.Millisecond), s.perSec)
	fmt.Printf("fatal:    %d\n", s.failures)
	fmt.Printf("p50:      %s\n", s.p50.Round(time.Microsecond))
	fmt.Printf("p95:      %s\n", s.p95.Round(time.Microsecond))
	fmt.Printf("p99:      %s\n", s.p99.Round(time.Microsecond))
}
