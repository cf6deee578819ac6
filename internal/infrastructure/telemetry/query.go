package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/discovery"
)

// uptimeWindow is the lookback used for uptime calculation. A device is
// considered up for an hour when at least one reading landed in it.
const uptimeWindow = 24

// DeviceStats derives per-device metrics from recorded readings.
//
// This satisfies the stats source interface the discovery engine expects.
// It returns (nil, nil) when the device has never published, so callers can
// distinguish "no data yet" from a query failure.
//
// Derived fields:
//   - TotalDataPoints: distinct reading timestamps over all time
//   - LastPublishedAt: timestamp of the most recent reading
//   - UptimePercent: share of the last 24 hours with at least one reading
//
// Earnings, subscriber counts, and quality scoring need chain-side
// aggregation the contract does not expose, so those fields stay zero.
func (c *Client) DeviceStats(ctx context.Context, address common.Address) (*discovery.DeviceStats, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	device := strings.ToLower(address.Hex())

	total, err := c.readingCount(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("%w: reading count: %w", ErrQueryFailed, err)
	}
	if total == 0 {
		return nil, nil
	}

	last, err := c.lastPublished(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("%w: last published: %w", ErrQueryFailed, err)
	}

	uptime, err := c.uptimePercent(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("%w: uptime: %w", ErrQueryFailed, err)
	}

	return &discovery.DeviceStats{
		TotalDataPoints: total,
		TotalEarnings:   "0",
		UptimePercent:   uptime,
		LastPublishedAt: last,
	}, nil
}

// readingCount counts distinct reading timestamps for a device.
//
// A reading writes one field per numeric value at a shared timestamp, so
// counting distinct times counts readings rather than fields.
func (c *Client) readingCount(ctx context.Context, device string) (int64, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == %q and r.device == %q)
  |> group()
  |> distinct(column: "_time")
  |> count()`, c.cfg.Bucket, measurementReadings, device)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return 0, err
	}

	var total int64
	for result.Next() {
		if v, ok := result.Record().Value().(int64); ok {
			total = v
		}
	}
	if err := result.Err(); err != nil {
		return 0, err
	}
	return total, nil
}

// lastPublished returns the timestamp of the most recent reading.
func (c *Client) lastPublished(ctx context.Context, device string) (time.Time, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == %q and r.device == %q)
  |> group()
  |> max(column: "_time")`, c.cfg.Bucket, measurementReadings, device)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return time.Time{}, err
	}

	var last time.Time
	for result.Next() {
		if t := result.Record().Time(); t.After(last) {
			last = t
		}
	}
	if err := result.Err(); err != nil {
		return time.Time{}, err
	}
	return last.UTC(), nil
}

// uptimePercent computes the share of hourly windows in the lookback period
// that contain at least one reading.
func (c *Client) uptimePercent(ctx context.Context, device string) (float64, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%dh)
  |> filter(fn: (r) => r._measurement == %q and r.device == %q)
  |> group()
  |> aggregateWindow(every: 1h, fn: count, createEmpty: true)`,
		c.cfg.Bucket, uptimeWindow, measurementReadings, device)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return 0, err
	}

	var counts []int64
	for result.Next() {
		if v, ok := result.Record().Value().(int64); ok {
			counts = append(counts, v)
		}
	}
	if err := result.Err(); err != nil {
		return 0, err
	}

	return uptimeFromWindows(counts), nil
}

// uptimeFromWindows converts per-window reading counts into an uptime
// percentage. An empty window list means no data, which is 0% uptime.
func uptimeFromWindows(counts []int64) float64 {
	if len(counts) == 0 {
		return 0
	}

	active := 0
	for _, n := range counts {
		if n > 0 {
			active++
		}
	}

	return float64(active) / float64(len(counts)) * 100 //nolint:mnd
}
