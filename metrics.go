package ignix

import (
	"sync/atomic"
	"time"

	"github.com/cyclechain/ignix/internal/interfaces"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// commandCounters holds per-verb counters. Unknown verbs share a single
// "other" bucket rather than growing the struct per new command.
type commandCounters struct {
	Ping, Get, Set, Del, Rename, Exists, Incr, Mget, Mset, Other atomic.Uint64
}

func (c *commandCounters) counterFor(op string) *atomic.Uint64 {
	switch op {
	case "PING":
		return &c.Ping
	case "GET":
		return &c.Get
	case "SET":
		return &c.Set
	case "DEL":
		return &c.Del
	case "RENAME":
		return &c.Rename
	case "EXISTS":
		return &c.Exists
	case "INCR":
		return &c.Incr
	case "MGET":
		return &c.Mget
	case "MSET":
		return &c.Mset
	default:
		return &c.Other
	}
}

// Metrics tracks performance and operational statistics for an ignix server.
type Metrics struct {
	Commands commandCounters

	ProtocolErrors  atomic.Uint64 // malformed RESP frames rejected
	CapacityRejects atomic.Uint64 // commands rejected for backpressure

	ConnsAccepted atomic.Uint64 // total accepted connections
	ConnsClosed   atomic.Uint64 // total torn-down connections

	AOFRecordsAccepted atomic.Uint64 // durability records enqueued
	AOFRecordsDropped  atomic.Uint64 // durability records dropped (queue saturated)

	// Performance tracking
	TotalLatencyNs atomic.Uint64 // cumulative command latency in nanoseconds
	OpCount        atomic.Uint64 // total observed commands (for average latency)

	// Latency histogram buckets (cumulative counts).
	// Each bucket[i] contains the count of commands with latency <= LatencyBuckets[i].
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Server lifecycle
	StartTime atomic.Int64 // server start timestamp (UnixNano)
	StopTime  atomic.Int64 // server stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordCommand records a single executed command and its latency.
func (m *Metrics) RecordCommand(op string, latencyNs uint64) {
	m.Commands.counterFor(op).Add(1)
	m.recordLatency(latencyNs)
}

// RecordProtocolError records a rejected malformed frame.
func (m *Metrics) RecordProtocolError() {
	m.ProtocolErrors.Add(1)
}

// RecordCapacityReject records a command rejected for backpressure.
func (m *Metrics) RecordCapacityReject() {
	m.CapacityRejects.Add(1)
}

// RecordConnAccepted records a newly accepted connection.
func (m *Metrics) RecordConnAccepted() {
	m.ConnsAccepted.Add(1)
}

// RecordConnClosed records a torn-down connection.
func (m *Metrics) RecordConnClosed() {
	m.ConnsClosed.Add(1)
}

// RecordAOFRecord records whether a durability record was accepted onto the
// writer's queue or dropped because the queue was saturated.
func (m *Metrics) RecordAOFRecord(accepted bool) {
	if accepted {
		m.AOFRecordsAccepted.Add(1)
	} else {
		m.AOFRecordsDropped.Add(1)
	}
}

// recordLatency updates the running latency total and histogram.
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the server as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// CommandCounts is a point-in-time copy of per-verb command counters.
type CommandCounts struct {
	Ping, Get, Set, Del, Rename, Exists, Incr, Mget, Mset, Other uint64
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Commands CommandCounts
	TotalOps uint64

	ProtocolErrors  uint64
	CapacityRejects uint64

	ConnsAccepted uint64
	ConnsClosed   uint64

	AOFRecordsAccepted uint64
	AOFRecordsDropped  uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	// Latency percentiles (in nanoseconds)
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	// Histogram bucket counts (cumulative)
	LatencyHistogram [numLatencyBuckets]uint64

	CommandsPerSecond float64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Commands: CommandCounts{
			Ping:   m.Commands.Ping.Load(),
			Get:    m.Commands.Get.Load(),
			Set:    m.Commands.Set.Load(),
			Del:    m.Commands.Del.Load(),
			Rename: m.Commands.Rename.Load(),
			Exists: m.Commands.Exists.Load(),
			Incr:   m.Commands.Incr.Load(),
			Mget:   m.Commands.Mget.Load(),
			Mset:   m.Commands.Mset.Load(),
			Other:  m.Commands.Other.Load(),
		},
		ProtocolErrors:     m.ProtocolErrors.Load(),
		CapacityRejects:    m.CapacityRejects.Load(),
		ConnsAccepted:      m.ConnsAccepted.Load(),
		ConnsClosed:        m.ConnsClosed.Load(),
		AOFRecordsAccepted: m.AOFRecordsAccepted.Load(),
		AOFRecordsDropped:  m.AOFRecordsDropped.Load(),
	}

	snap.TotalOps = snap.Commands.Ping + snap.Commands.Get + snap.Commands.Set +
		snap.Commands.Del + snap.Commands.Rename + snap.Commands.Exists +
		snap.Commands.Incr + snap.Commands.Mget + snap.Commands.Mset + snap.Commands.Other

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.CommandsPerSecond = float64(snap.TotalOps) / uptimeSeconds
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters. Useful for testing.
func (m *Metrics) Reset() {
	m.Commands = commandCounters{}
	m.ProtocolErrors.Store(0)
	m.CapacityRejects.Store(0)
	m.ConnsAccepted.Store(0)
	m.ConnsClosed.Store(0)
	m.AOFRecordsAccepted.Store(0)
	m.AOFRecordsDropped.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MetricsObserver adapts Metrics to interfaces.Observer so internal packages
// (reactor, executor) can report into it without importing this package.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveCommand(op string, latencyNs uint64) {
	o.metrics.RecordCommand(op, latencyNs)
}

func (o *MetricsObserver) ObserveProtocolError() {
	o.metrics.RecordProtocolError()
}

func (o *MetricsObserver) ObserveCapacityReject() {
	o.metrics.RecordCapacityReject()
}

func (o *MetricsObserver) ObserveConnAccepted() {
	o.metrics.RecordConnAccepted()
}

func (o *MetricsObserver) ObserveConnClosed() {
	o.metrics.RecordConnClosed()
}

func (o *MetricsObserver) ObserveAOFRecord(accepted bool) {
	o.metrics.RecordAOFRecord(accepted)
}

// Compile-time interface check
var _ interfaces.Observer = (*MetricsObserver)(nil)
