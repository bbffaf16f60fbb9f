// Package state is the core API for the vault and implements all the
// business rules and processing.
package state

import (
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/genesis"
)

// EventHandler defines a function that is called when events occur in the
// processing of vault operations.
type EventHandler func(v string, args ...any)

// Gateway interface represents the behavior required to be implemented by
// any package providing the value-transfer primitive. A Transfer may hand
// control to arbitrary third-party logic, which is why every mutating
// operation completes its ledger effects before calling it and holds the
// vault guard across the call.
type Gateway interface {
	Collect(from database.AccountID, amount *big.Int) error
	Transfer(to database.AccountID, amount *big.Int) error
}

// =============================================================================

// Config represents the configuration required to start the vault.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Serializer
	Gateway   Gateway
	EvHandler EventHandler
	Now       func() time.Time
}

// State manages the vault ledger and orchestrates the four mutating
// operations as atomic, mutually exclusive transitions.
type State struct {
	mu        sync.Mutex
	inGateway atomic.Bool

	genesis   genesis.Genesis
	treasury  database.AccountID
	gateway   Gateway
	evHandler EventHandler
	now       func() time.Time

	db *database.Database
}

// New constructs a new vault state for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// The configuration is validated once here and immutable afterwards.
	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	treasury, err := database.ToAccountID(cfg.Genesis.Treasury)
	if err != nil {
		return nil, err
	}

	// Access the storage for the journal and replay any committed
	// operations into a fresh ledger.
	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// Replay the recorded value movements through the gateway so the
	// settlement balances line up with the rebuilt ledger. A gateway seeded
	// from genesis ends up exactly where it was when each record committed.
	if err := replaySettlement(cfg.Storage, cfg.Gateway, treasury); err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	state := State{
		genesis:   cfg.Genesis,
		treasury:  treasury,
		gateway:   cfg.Gateway,
		evHandler: ev,
		now:       now,
		db:        db,
	}

	return &state, nil
}

// Shutdown cleanly brings the vault down.
func (s *State) Shutdown() error {
	s.db.Close()
	return nil
}

// =============================================================================

// replaySettlement re-applies the value effects of every committed record.
// The amounts come from the journal, never from recomputation, so the
// replay is deterministic regardless of the clock.
func replaySettlement(storage database.Serializer, gateway Gateway, treasury database.AccountID) error {
	iter := storage.ForEach()
	for record, err := iter.Next(); !iter.Done(); record, err = iter.Next() {
		if err != nil {
			return err
		}

		if record.Kind == database.OpDeposit {
			if err := gateway.Collect(record.Owner, record.Shares); err != nil {
				return fmt.Errorf("replaying collection for record %d: %w", record.Seq, err)
			}
			continue
		}

		if record.Paid != nil && record.Paid.Sign() > 0 {
			if err := gateway.Transfer(record.Owner, record.Paid); err != nil {
				return fmt.Errorf("replaying payout for record %d: %w", record.Seq, err)
			}
		}
		if record.TreasuryFee != nil && record.TreasuryFee.Sign() > 0 {
			if err := gateway.Transfer(treasury, record.TreasuryFee); err != nil {
				return fmt.Errorf("replaying treasury fee for record %d: %w", record.Seq, err)
			}
		}
	}

	return nil
}

// =============================================================================

// acquire takes the vault guard. Concurrent operations queue on the mutex;
// a nested invocation from inside a gateway call is rejected instead of
// deadlocking on its own lock.
func (s *State) acquire() error {
	if s.inGateway.Load() {
		return ErrReentrancy
	}

	s.mu.Lock()
	return nil
}

// collect runs a gateway collection with the reentry flag raised. The flag
// is only ever set while the vault guard is held.
func (s *State) collect(from database.AccountID, amount *big.Int) error {
	s.inGateway.Store(true)
	defer s.inGateway.Store(false)

	return s.gateway.Collect(from, amount)
}

// transfer runs a gateway payout with the reentry flag raised.
func (s *State) transfer(to database.AccountID, amount *big.Int) error {
	s.inGateway.Store(true)
	defer s.inGateway.Store(false)

	return s.gateway.Transfer(to, amount)
}

// =============================================================================

// timeNow returns the current chain time in unix seconds.
func (s *State) timeNow() uint64 {
	return uint64(s.now().UTC().Unix())
}

// journal commits a record, reporting rather than failing when the journal
// write itself has a problem. The ledger effects and transfers are already
// final at that point.
func (s *State) journal(record database.Record) {
	if err := s.db.Journal(record); err != nil {
		s.evHandler("state: journal: seq write failed: ERROR: %s", err)
	}
}
