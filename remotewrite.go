//go:build !tinygo

package ghost

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/eryajf/promwrite"
)

// RemoteWriter pushes a thing's counters to a Prometheus remote-write
// endpoint on a fixed interval
type RemoteWriter struct {
	client   *promwrite.Client
	interval time.Duration
	labels   map[string]string
	collect  func() map[string]float64
}

// NewRemoteWriter returns a writer that sends collect()'s samples, tagged
// with labels, to url every interval
func NewRemoteWriter(url string, interval time.Duration, labels map[string]string,
	collect func() map[string]float64) *RemoteWriter {
	return &RemoteWriter{
		client:   promwrite.NewClient(url),
		interval: interval,
		labels:   labels,
		collect:  collect,
	}
}

func (rw *RemoteWriter) timeSeries(now time.Time) []promwrite.TimeSeries {
	samples := rw.collect()

	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	// remote-write receivers want labels sorted by name
	keys := make([]string, 0, len(rw.labels))
	for k := range rw.labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]promwrite.TimeSeries, 0, len(names))
	for _, name := range names {
		labels := make([]promwrite.Label, 0, 1+len(rw.labels))
		labels = append(labels, promwrite.Label{Name: "__name__", Value: name})
		for _, k := range keys {
			labels = append(labels, promwrite.Label{Name: k, Value: rw.labels[k]})
		}
		series = append(series, promwrite.TimeSeries{
			Labels: labels,
			Sample: promwrite.Sample{Time: now, Value: samples[name]},
		})
	}
	return series
}

// Write sends one round of samples
func (rw *RemoteWriter) Write(ctx context.Context) error {
	series := rw.timeSeries(time.Now())
	if len(series) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, rw.interval)
	defer cancel()
	if _, err := rw.client.Write(ctx, &promwrite.WriteRequest{TimeSeries: series}); err != nil {
		return fmt.Errorf("remote write: %w", err)
	}
	return nil
}

// Run writes every interval until ctx is done
func (rw *RemoteWriter) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rw.Write(ctx); err != nil {
				logger.Warnf("%s", err)
			}
		}
	}
}
