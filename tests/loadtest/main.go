package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:8080"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numUsers     = 500

	// Must match the secrets the server was started with.
	vitalSecret  = "whsec_vital_loadtest"
	terraSecret  = "whsec_terra_loadtest"
	stripeSecret = "whsec_stripe_loadtest"
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== Fitsink Webhook Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Users: %d\n\n", numWorkers, testDuration, numUsers)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: Fresh deliveries only. Every body is unique, so everything
	// takes the write path.
	fmt.Println("\n--- Phase 1: Fresh deliveries (100% new payloads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return postRandomWebhook(rng, false)
	})

	// Phase 2: Mixed providers with half the bodies repeated, exercising
	// the dedup cache and the DB conflict path.
	fmt.Println("\n--- Phase 2: Mixed load (50% redeliveries) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return postRandomWebhook(rng, rng.Float64() < 0.5)
	})

	// Phase 3: Redelivery storm plus health polls.
	fmt.Println("\n--- Phase 3: Redelivery-heavy (90% redeliveries, 10% health) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.10 {
			return doHealth()
		}
		return postRandomWebhook(rng, true)
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-28s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 90))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-28s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 90))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func hexHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// dayOffset picks the calendar day the payload reports on. Redeliveries
// reuse a small window of days so the natural keys collide.
func dayOffset(rng *rand.Rand, redelivery bool) int {
	if redelivery {
		return rng.Intn(3)
	}
	return rng.Intn(3650)
}

func calendarDate(offset int) string {
	return time.Now().AddDate(0, 0, -offset).Format("2006-01-02")
}

func postRandomWebhook(rng *rand.Rand, redelivery bool) result {
	switch rng.Intn(3) {
	case 0:
		return doVitalSleep(rng, redelivery)
	case 1:
		return doTerraActivity(rng, redelivery)
	default:
		return doStripeCheckout(rng, redelivery)
	}
}

func doVitalSleep(rng *rand.Rand, redelivery bool) result {
	userID := fmt.Sprintf("user-%d", rng.Intn(numUsers)+1)
	date := calendarDate(dayOffset(rng, redelivery))

	body, _ := json.Marshal(map[string]any{
		"event_type": "daily.data.sleep.created",
		"user_id":    userID,
		"data": map[string]any{
			"date": date,
			"sleep": map[string]any{
				"duration":   float64(21600 + rng.Intn(14400)),
				"efficiency": 0.7 + rng.Float64()*0.3,
				"hrv": map[string]any{
					"avg_hrv_rmssd": 40.0 + rng.Float64()*40,
				},
				"heart_rate": map[string]any{
					"avg_hr_bpm": float64(45 + rng.Intn(30)),
				},
			},
		},
	})

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/webhooks/vital", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-vital-signature", hexHMAC(vitalSecret, body))
	return doSigned("POST /webhooks/vital", req)
}

func doTerraActivity(rng *rand.Rand, redelivery bool) result {
	userID := fmt.Sprintf("user-%d", rng.Intn(numUsers)+1)
	date := calendarDate(dayOffset(rng, redelivery))

	body, _ := json.Marshal(map[string]any{
		"type": "activity",
		"user": map[string]any{"reference_id": userID},
		"data": []map[string]any{{
			"metadata": map[string]any{"start_time": date + "T00:00:00Z"},
			"distance_data": map[string]any{
				"steps": 4000 + rng.Intn(12000),
			},
			"calories_data": map[string]any{
				"total_burned_calories": 1500.0 + rng.Float64()*1500,
			},
			"active_durations_data": map[string]any{
				"activity_seconds": float64(1800 + rng.Intn(5400)),
			},
		}},
	})

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/webhooks/terra", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("terra-signature", hexHMAC(terraSecret, body))
	return doSigned("POST /webhooks/terra", req)
}

func doStripeCheckout(rng *rand.Rand, redelivery bool) result {
	userNum := rng.Intn(numUsers) + 1
	subSuffix := userNum
	if !redelivery {
		subSuffix = rng.Int()
	}

	body, _ := json.Marshal(map[string]any{
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"client_reference_id": fmt.Sprintf("user-%d", userNum),
				"subscription":        fmt.Sprintf("sub_%d", subSuffix),
				"customer":            fmt.Sprintf("cus_%d", userNum),
				"metadata":            map[string]any{"plan": "MONTHLY"},
			},
		},
	})

	ts := time.Now().Unix()
	signed := fmt.Sprintf("%d.%s", ts, body)
	sig := fmt.Sprintf("t=%d,v1=%s", ts, hexHMAC(stripeSecret, []byte(signed)))

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("stripe-signature", sig)
	return doSigned("POST /webhooks/stripe", req)
}

func doSigned(endpoint string, req *http.Request) result {
	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != 200}
}

func doHealth() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/health")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /health", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /health", resp.StatusCode, lat, resp.StatusCode != 200}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
