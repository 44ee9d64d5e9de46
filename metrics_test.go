package ignix

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("Expected 0 initial ops, got %d", snap.TotalOps)
	}

	m.RecordCommand("GET", 1_000_000)
	m.RecordCommand("SET", 2_000_000)
	m.RecordCommand("GET", 500_000)

	snap = m.Snapshot()

	if snap.Commands.Get != 2 {
		t.Errorf("Expected 2 GET ops, got %d", snap.Commands.Get)
	}
	if snap.Commands.Set != 1 {
		t.Errorf("Expected 1 SET op, got %d", snap.Commands.Set)
	}
	if snap.TotalOps != 3 {
		t.Errorf("Expected 3 total ops, got %d", snap.TotalOps)
	}
}

func TestMetricsUnknownVerbGoesToOther(t *testing.T) {
	m := NewMetrics()

	m.RecordCommand("EXPIRE", 1_000)

	snap := m.Snapshot()
	if snap.Commands.Other != 1 {
		t.Errorf("Expected 1 op in Other bucket, got %d", snap.Commands.Other)
	}
	if snap.TotalOps != 1 {
		t.Errorf("Expected 1 total op, got %d", snap.TotalOps)
	}
}

func TestMetricsProtocolAndCapacityCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordProtocolError()
	m.RecordProtocolError()
	m.RecordCapacityReject()

	snap := m.Snapshot()
	if snap.ProtocolErrors != 2 {
		t.Errorf("Expected 2 protocol errors, got %d", snap.ProtocolErrors)
	}
	if snap.CapacityRejects != 1 {
		t.Errorf("Expected 1 capacity reject, got %d", snap.CapacityRejects)
	}
}

func TestMetricsConnCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordConnAccepted()
	m.RecordConnAccepted()
	m.RecordConnClosed()

	snap := m.Snapshot()
	if snap.ConnsAccepted != 2 {
		t.Errorf("Expected 2 conns accepted, got %d", snap.ConnsAccepted)
	}
	if snap.ConnsClosed != 1 {
		t.Errorf("Expected 1 conn closed, got %d", snap.ConnsClosed)
	}
}

func TestMetricsAOFCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordAOFRecord(true)
	m.RecordAOFRecord(true)
	m.RecordAOFRecord(false)

	snap := m.Snapshot()
	if snap.AOFRecordsAccepted != 2 {
		t.Errorf("Expected 2 AOF records accepted, got %d", snap.AOFRecordsAccepted)
	}
	if snap.AOFRecordsDropped != 1 {
		t.Errorf("Expected 1 AOF record dropped, got %d", snap.AOFRecordsDropped)
	}
}

func TestMetricsLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordCommand("GET", 1_000_000)
	m.RecordCommand("SET", 2_000_000)

	snap := m.Snapshot()

	expectedAvgNs := uint64(1_500_000)
	if snap.AvgLatencyNs != expectedAvgNs {
		t.Errorf("Expected avg latency %d ns, got %d ns", expectedAvgNs, snap.AvgLatencyNs)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	if snap.UptimeNs < 10*1_000_000 {
		t.Errorf("Expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+2*1_000_000 {
		t.Errorf("Uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordCommand("GET", 1_000_000)
	m.RecordCommand("SET", 2_000_000)
	m.RecordConnAccepted()

	snap := m.Snapshot()
	if snap.TotalOps == 0 {
		t.Error("Expected some operations before reset")
	}

	m.Reset()

	snap = m.Snapshot()
	if snap.TotalOps != 0 {
		t.Errorf("Expected 0 ops after reset, got %d", snap.TotalOps)
	}
	if snap.ConnsAccepted != 0 {
		t.Errorf("Expected 0 conns accepted after reset, got %d", snap.ConnsAccepted)
	}
}

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	observer := NewMetricsObserver(m)

	observer.ObserveCommand("GET", 1_000_000)
	observer.ObserveCommand("SET", 2_000_000)
	observer.ObserveProtocolError()
	observer.ObserveCapacityReject()
	observer.ObserveConnAccepted()
	observer.ObserveConnClosed()
	observer.ObserveAOFRecord(true)
	observer.ObserveAOFRecord(false)

	snap := m.Snapshot()
	if snap.Commands.Get != 1 {
		t.Errorf("Expected 1 GET op from observer, got %d", snap.Commands.Get)
	}
	if snap.Commands.Set != 1 {
		t.Errorf("Expected 1 SET op from observer, got %d", snap.Commands.Set)
	}
	if snap.ProtocolErrors != 1 {
		t.Errorf("Expected 1 protocol error from observer, got %d", snap.ProtocolErrors)
	}
	if snap.CapacityRejects != 1 {
		t.Errorf("Expected 1 capacity reject from observer, got %d", snap.CapacityRejects)
	}
	if snap.ConnsAccepted != 1 || snap.ConnsClosed != 1 {
		t.Errorf("Expected 1 conn accepted and 1 closed, got %d/%d", snap.ConnsAccepted, snap.ConnsClosed)
	}
	if snap.AOFRecordsAccepted != 1 || snap.AOFRecordsDropped != 1 {
		t.Errorf("Expected 1 AOF accepted and 1 dropped, got %d/%d", snap.AOFRecordsAccepted, snap.AOFRecordsDropped)
	}
}

func TestMetricsRates(t *testing.T) {
	m := NewMetrics()

	startTime := time.Now()
	m.StartTime.Store(startTime.UnixNano())

	m.RecordCommand("GET", 1_000_000)
	m.RecordCommand("SET", 2_000_000)

	stopTime := startTime.Add(1 * time.Second)
	m.StopTime.Store(stopTime.UnixNano())

	snap := m.Snapshot()

	if snap.CommandsPerSecond < 1.9 || snap.CommandsPerSecond > 2.1 {
		t.Errorf("Expected CommandsPerSecond ~2.0, got %.2f", snap.CommandsPerSecond)
	}
}

func TestMetricsHistogram(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordCommand("GET", 500_000) // 500us
	}
	for i := 0; i < 49; i++ {
		m.RecordCommand("SET", 5_000_000) // 5ms
	}
	m.RecordCommand("SET", 50_000_000) // 50ms, the single slowest sample

	snap := m.Snapshot()

	if snap.TotalOps != 100 {
		t.Errorf("Expected 100 total ops, got %d", snap.TotalOps)
	}

	if snap.LatencyP50Ns < 100_000 || snap.LatencyP50Ns > 1_000_000 {
		t.Errorf("Expected P50 in 100us-1ms range, got %d ns", snap.LatencyP50Ns)
	}

	if snap.LatencyP99Ns < 5_000_000 || snap.LatencyP99Ns > 100_000_000 {
		t.Errorf("Expected P99 in 5ms-100ms range, got %d ns", snap.LatencyP99Ns)
	}

	totalInBuckets := uint64(0)
	for i := 0; i < len(snap.LatencyHistogram); i++ {
		totalInBuckets += snap.LatencyHistogram[i]
	}
	if totalInBuckets == 0 {
		t.Error("Expected histogram buckets to be populated")
	}
}
