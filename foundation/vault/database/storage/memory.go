package storage

import (
	"errors"
	"sync"

	"github.com/aayushmayush07/vault/foundation/vault/database"
)

// Memory represents the serialization implementation for reading and
// storing journal records in memory using a slice. This implements the
// database.Serializer interface and exists for testing and ephemeral runs.
type Memory struct {
	mu      sync.RWMutex
	records []database.Record
}

// NewMemory constructs a Memory value for use.
func NewMemory() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified journal record and stores it in memory.
func (m *Memory) Write(record database.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records)+1 != int(record.Seq) {
		return errors.New("record is out of order")
	}

	m.records = append(m.records, record)

	return nil
}

// GetRecord searches the journal to locate and return the contents of the
// specified record by sequence number.
func (m *Memory) GetRecord(seq uint64) (database.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if seq == 0 || seq > uint64(len(m.records)) {
		return database.Record{}, errors.New("record does not exist")
	}

	return m.records[seq-1], nil
}

// ForEach returns an iterator to walk through all the records starting
// with sequence number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset will clear out the journal in memory.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = nil
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading records in memory. This implements the database
// Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the memory storage API.
	current uint64  // Current sequence number being iterated over.
	eoj     bool    // Represents the iterator is at the end of the journal.
}

// Next retrieves the next record from memory.
func (mi *memoryIterator) Next() (database.Record, error) {
	if mi.eoj {
		return database.Record{}, errors.New("end of journal")
	}

	mi.current++
	record, err := mi.storage.GetRecord(mi.current)
	if err != nil {
		mi.eoj = true
	}

	return record, err
}

// Done returns the end of journal value.
func (mi *memoryIterator) Done() bool {
	return mi.eoj
}
