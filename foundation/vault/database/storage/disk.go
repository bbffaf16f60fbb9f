// Package storage implements the serializers the database supports for
// reading and storing the operation journal.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/aayushmayush07/vault/foundation/vault/database"
)

// Disk represents the serialization implementation for reading and storing
// journal records in their own separate files on disk. This implements the
// database.Serializer interface.
type Disk struct {
	dbPath string
}

// NewDisk constructs a Disk value for use.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new record and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified journal record and stores it on disk in a file
// labeled with the sequence number.
func (d *Disk) Write(record database.Record) error {

	// Marshal the record for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	// Create a new file for this record and name it based on the sequence.
	f, err := os.OpenFile(d.getPath(record.Seq), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	// Write the new record to disk.
	if _, err := f.Write(data); err != nil {
		return err
	}

	return nil
}

// GetRecord searches the journal on disk to locate and return the contents
// of the specified record by sequence number.
func (d *Disk) GetRecord(seq uint64) (database.Record, error) {

	// Open the record file for the specified sequence number.
	f, err := os.OpenFile(d.getPath(seq), os.O_RDONLY, 0600)
	if err != nil {
		return database.Record{}, err
	}
	defer f.Close()

	// Decode the contents of the record.
	var record database.Record
	if err := json.NewDecoder(f).Decode(&record); err != nil {
		return database.Record{}, err
	}

	return record, nil
}

// ForEach returns an iterator to walk through all the records starting with
// sequence number 1.
func (d *Disk) ForEach() database.Iterator {
	return &DiskIterator{disk: d}
}

// Reset will clear out the journal on disk.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the specified record.
func (d *Disk) getPath(seq uint64) string {
	name := strconv.FormatUint(seq, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// DiskIterator represents the iteration implementation for walking through
// and reading records on disk. This implements the database Iterator
// interface.
type DiskIterator struct {
	disk    *Disk  // Access to the disk storage API.
	current uint64 // Current sequence number being iterated over.
	eoj     bool   // Represents the iterator is at the end of the journal.
}

// Next retrieves the next record from disk.
func (di *DiskIterator) Next() (database.Record, error) {
	if di.eoj {
		return database.Record{}, errors.New("end of journal")
	}

	di.current++
	record, err := di.disk.GetRecord(di.current)
	if errors.Is(err, fs.ErrNotExist) {
		di.eoj = true
	}

	return record, err
}

// Done returns the end of journal value.
func (di *DiskIterator) Done() bool {
	return di.eoj
}
