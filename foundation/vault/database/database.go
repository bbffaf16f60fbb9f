// Package database handles all the lower level support for maintaining the
// position ledger in memory and the operation journal on disk.
package database

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/aayushmayush07/vault/foundation/vault/reward"
)

// Serializer interface represents the behavior required to be implemented
// by any package providing support for storing and reading the journal.
type Serializer interface {
	Write(record Record) error
	GetRecord(seq uint64) (Record, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over journal records.
type Iterator interface {
	Next() (Record, error)
	Done() bool
}

// =============================================================================

// Database manages the position ledger and the global accumulator state.
// All mutation flows through Apply so a journal replay and a live operation
// share the exact same effects.
type Database struct {
	mu sync.RWMutex

	positions          map[uint64]Position
	nextID             uint64
	totalShares        *big.Int
	accPenaltyPerShare *big.Int
	lastSeq            uint64

	serializer Serializer
}

// New constructs a new database and replays any journal records the
// serializer holds to rebuild the ledger state.
func New(serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		positions:          make(map[uint64]Position),
		nextID:             1,
		totalShares:        big.NewInt(0),
		accPenaltyPerShare: big.NewInt(0),
		serializer:         serializer,
	}

	iter := serializer.ForEach()
	for record, err := iter.Next(); !iter.Done(); record, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := db.apply(record); err != nil {
			return nil, fmt.Errorf("replaying journal record %d: %w", record.Seq, err)
		}
		db.lastSeq = record.Seq
	}

	if db.lastSeq > 0 {
		ev("database: replayed %d journal records, %d live positions", db.lastSeq, len(db.positions))
	}

	return &db, nil
}

// Close closes the open journal.
func (db *Database) Close() {
	db.serializer.Close()
}

// NextID returns the identifier the next created position will receive.
// Identifiers are strictly increasing and never reused.
func (db *Database) NextID() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.nextID
}

// Apply performs the ledger effects of the specified record.
func (db *Database) Apply(record Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.apply(record)
}

// Journal commits the specified record to the journal with the next
// sequence number.
func (db *Database) Journal(record Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	record.Seq = db.lastSeq + 1
	if err := db.serializer.Write(record); err != nil {
		return err
	}
	db.lastSeq = record.Seq

	return nil
}

// QueryPosition returns the position for the specified id. Absence is not
// an error at this layer, callers decide what absence means.
func (db *Database) QueryPosition(id uint64) (Position, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	position, exists := db.positions[id]
	if !exists {
		return Position{}, false
	}

	return position.copy(), true
}

// CopyPositions makes a copy of the current live positions in the ledger.
func (db *Database) CopyPositions() map[uint64]Position {
	db.mu.RLock()
	defer db.mu.RUnlock()

	positions := make(map[uint64]Position, len(db.positions))
	for id, position := range db.positions {
		positions[id] = position.copy()
	}

	return positions
}

// TotalShares returns the sum of shares over all live positions.
func (db *Database) TotalShares() *big.Int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return new(big.Int).Set(db.totalShares)
}

// AccPenaltyPerShare returns the current value of the global accumulator.
// The value is monotonically non-decreasing over the life of the vault.
func (db *Database) AccPenaltyPerShare() *big.Int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return new(big.Int).Set(db.accPenaltyPerShare)
}

// =============================================================================

// Snapshot captures the slice of ledger state one operation can touch so a
// failed value transfer can undo its effects atomically.
type Snapshot struct {
	id          uint64
	position    Position
	existed     bool
	nextID      uint64
	totalShares *big.Int
	accIndex    *big.Int
}

// Snapshot captures the current state around the specified position id.
func (db *Database) Snapshot(id uint64) Snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	snap := Snapshot{
		id:          id,
		nextID:      db.nextID,
		totalShares: new(big.Int).Set(db.totalShares),
		accIndex:    new(big.Int).Set(db.accPenaltyPerShare),
	}

	if position, exists := db.positions[id]; exists {
		snap.position = position.copy()
		snap.existed = true
	}

	return snap
}

// Rollback restores the ledger to the specified snapshot. It is only valid
// for the snapshot taken by the operation currently holding the vault guard.
func (db *Database) Rollback(snap Snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.nextID = snap.nextID
	db.totalShares = new(big.Int).Set(snap.totalShares)
	db.accPenaltyPerShare = new(big.Int).Set(snap.accIndex)

	if snap.existed {
		db.positions[snap.id] = snap.position.copy()
		return
	}
	delete(db.positions, snap.id)
}

// =============================================================================

// apply mutates the ledger with the effects of one committed transition.
// It must be called with the write lock held.
func (db *Database) apply(record Record) error {
	switch record.Kind {
	case OpDeposit:
		if record.Owner == "" || record.Shares == nil || record.Shares.Sign() <= 0 {
			return fmt.Errorf("deposit record for position %d is malformed", record.ID)
		}
		if _, exists := db.positions[record.ID]; exists {
			return fmt.Errorf("position %d already exists", record.ID)
		}

		db.positions[record.ID] = Position{
			Owner:      record.Owner,
			Shares:     new(big.Int).Set(record.Shares),
			Start:      record.Start,
			UnlockAt:   record.UnlockAt,
			RewardDebt: reward.Settle(record.Shares, db.accPenaltyPerShare),
		}
		db.totalShares.Add(db.totalShares, record.Shares)

		if record.ID >= db.nextID {
			db.nextID = record.ID + 1
		}

	case OpHarvest:
		position, exists := db.positions[record.ID]
		if !exists {
			return fmt.Errorf("position %d does not exist", record.ID)
		}

		position.RewardDebt = reward.Settle(position.Shares, db.accPenaltyPerShare)
		db.positions[record.ID] = position

	case OpWithdraw:
		position, exists := db.positions[record.ID]
		if !exists {
			return fmt.Errorf("position %d does not exist", record.ID)
		}

		db.totalShares.Sub(db.totalShares, position.Shares)
		delete(db.positions, record.ID)

	case OpRagequit:
		position, exists := db.positions[record.ID]
		if !exists {
			return fmt.Errorf("position %d does not exist", record.ID)
		}

		// The quitter's own shares are excluded from the distribution. When
		// no other shares remain the socialized amount was redirected to the
		// treasury and the accumulator stays untouched.
		remaining := new(big.Int).Sub(db.totalShares, position.Shares)
		if remaining.Sign() > 0 && record.ToStakers != nil && record.ToStakers.Sign() > 0 {
			delta := reward.IndexDelta(record.ToStakers, remaining)
			db.accPenaltyPerShare.Add(db.accPenaltyPerShare, delta)
		}

		db.totalShares.Sub(db.totalShares, position.Shares)
		delete(db.positions, record.ID)

	default:
		return fmt.Errorf("unrecognized record kind %q", record.Kind)
	}

	return nil
}
