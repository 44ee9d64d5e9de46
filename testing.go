package ignix

import (
	"sync"

	"github.com/cyclechain/ignix/internal/interfaces"
)

// MockStore provides a mock implementation of interfaces.Store for testing.
// It is a simple map-backed keyspace that tracks method calls for
// verification, independent of internal/store's sharding.
type MockStore struct {
	mu   sync.RWMutex
	data map[string]interfaces.Value

	getCalls    int
	setCalls    int
	delCalls    int
	existsCalls int
	renameCalls int
	incrCalls   int
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]interfaces.Value)}
}

// Get implements interfaces.Store.
func (m *MockStore) Get(key []byte) (interfaces.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	v, ok := m.data[string(key)]
	return v, ok
}

// Set implements interfaces.Store.
func (m *MockStore) Set(key []byte, value interfaces.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	m.data[string(key)] = value
}

// Del implements interfaces.Store.
func (m *MockStore) Del(key []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delCalls++
	_, existed := m.data[string(key)]
	delete(m.data, string(key))
	return existed
}

// Exists implements interfaces.Store.
func (m *MockStore) Exists(key []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	_, ok := m.data[string(key)]
	return ok
}

// Rename implements interfaces.Store.
func (m *MockStore) Rename(from, to []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renameCalls++
	v, ok := m.data[string(from)]
	if !ok {
		return false
	}
	delete(m.data, string(from))
	m.data[string(to)] = v
	return true
}

// Incr implements interfaces.Store.
func (m *MockStore) Incr(key []byte) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrCalls++
	v := m.data[string(key)]
	v.Kind = interfaces.KindInteger
	v.Int++
	m.data[string(key)] = v
	return v.Int
}

// CallCounts returns the number of times each method has been called.
func (m *MockStore) CallCounts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int{
		"get":    m.getCalls,
		"set":    m.setCalls,
		"del":    m.delCalls,
		"exists": m.existsCalls,
		"rename": m.renameCalls,
		"incr":   m.incrCalls,
	}
}

// Len returns the number of keys currently stored.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// MockLogWriter is a mock implementation of interfaces.LogWriter that
// records every enqueued record instead of writing to disk.
type MockLogWriter struct {
	mu           sync.Mutex
	records      [][]byte
	accept       bool
	enqueueCalls int
}

// NewMockLogWriter creates a mock log writer that accepts every record.
// Call Reject to make subsequent Enqueue calls return false.
func NewMockLogWriter() *MockLogWriter {
	return &MockLogWriter{accept: true}
}

// Enqueue implements interfaces.LogWriter.
func (m *MockLogWriter) Enqueue(record []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueueCalls++
	if !m.accept {
		return false
	}
	cp := make([]byte, len(record))
	copy(cp, record)
	m.records = append(m.records, cp)
	return true
}

// Reject makes future Enqueue calls report the queue as saturated.
func (m *MockLogWriter) Reject() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accept = false
}

// Records returns every record accepted so far.
func (m *MockLogWriter) Records() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.records))
	copy(out, m.records)
	return out
}

// EnqueueCalls returns the number of times Enqueue was called, regardless
// of whether it accepted or rejected the record.
func (m *MockLogWriter) EnqueueCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueueCalls
}

// Compile-time interface checks
var (
	_ interfaces.Store     = (*MockStore)(nil)
	_ interfaces.LogWriter = (*MockLogWriter)(nil)
)
