package fad

import (
	"log"
	"sync"
	"time"
)

// Bucket tracks latency over a sliding window for one class of calls.
type Bucket struct {
	mutex     sync.Mutex
	callCount int
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	failures  int
	name      string
	window    time.Duration
	startedAt time.Time
}

type BucketStats struct {
	Count, Failures int
	Avg, Min, Max   time.Duration
	Rate            float64
}

func NewBucket(name string, window time.Duration) *Bucket {
	return &Bucket{
		minTime:   time.Hour, // large sentinel, shrinks on first record
		name:      name,
		window:    window,
		startedAt: time.Now(),
	}
}

func (b *Bucket) RecordLatency(start time.Time, count int, err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	duration := time.Since(start)

	if time.Since(b.startedAt) >= b.window {
		b.callCount = 0
		b.failures = 0
		b.totalTime = 0
		b.minTime = b.window + time.Minute
		b.maxTime = 0
		b.startedAt = time.Now()
	}

	if err != nil {
		b.failures += count
	} else {
		b.callCount += count
	}
	b.totalTime += duration

	if count > 0 {
		relative := time.Duration(int64(duration) / int64(count))
		b.minTime = min(relative, b.minTime)
		b.maxTime = max(relative, b.maxTime)
	}
}

func (b *Bucket) GetStats() (bs BucketStats) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	bs.Count = b.callCount
	bs.Failures = b.failures

	if bs.Count > 0 {
		bs.Avg = (b.totalTime / time.Duration(bs.Count)).Round(time.Millisecond)
		bs.Min = b.minTime.Round(time.Millisecond)
		bs.Max = b.maxTime.Round(time.Millisecond)
		if tt := time.Since(b.startedAt).Milliseconds(); tt > 0 {
			bs.Rate = float64(bs.Count) * 1000.0 / float64(tt)
		}
	}

	return
}

func (b *Bucket) PrintStats(printHeader bool) {
	bs := b.GetStats()
	if printHeader {
		log.Printf("%s: total calls: %d failures: %d rate: %.1f/s", b.name, bs.Count, bs.Failures, bs.Rate)
	}
	if bs.Count > 0 {
		log.Printf("  Latency avg: %v min: %v max: %v Success rate: %.2f%%",
			bs.Avg, bs.Min, bs.Max, float64(bs.Count)/float64(bs.Count+bs.Failures)*100)
	}
}

// Metrics tracks latency over 24h/1h/5m/1m windows.
type Metrics struct {
	Buckets []*Bucket
}

type MetricsStats struct {
	BucketsStats [4]BucketStats
}

func NewMetrics(name string) *Metrics {
	return &Metrics{
		Buckets: []*Bucket{
			NewBucket(name, 24*time.Hour),
			NewBucket(name, time.Hour),
			NewBucket(name, 5*time.Minute),
			NewBucket(name, time.Minute),
		},
	}
}

func (m *Metrics) RecordLatency(start time.Time, count int, err error) {
	for i := range m.Buckets {
		m.Buckets[i].RecordLatency(start, count, err)
	}
}

func (m *Metrics) GetStats() *MetricsStats {
	s := &MetricsStats{}
	for i := range m.Buckets {
		s.BucketsStats[i] = m.Buckets[i].GetStats()
	}
	return s
}

func (m *Metrics) PrintStats(printHeader bool) {
	for i := range m.Buckets {
		m.Buckets[i].PrintStats(printHeader)
	}
}
