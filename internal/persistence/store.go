// Package persistence durably records the Coordinator's emergency state
// and last-known-good status snapshot across restarts, grounded on the
// teacher's v3/store BadgerStore pattern (JSON-encoded records under a
// key prefix, txn.Update/View).
package persistence

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	emergencyKey = "emergency:state"
	statusKey    = "status:last"
)

// EmergencyState is the durable record of an active emergency override.
type EmergencyState struct {
	Active    bool
	Message   string
	SetAt     time.Time
	ExpiresAt time.Time // zero = no auto-clear
}

// StatusRecord is the durable record of the Coordinator's last-known-good
// status snapshot, restored on startup so a crash/restart doesn't surface
// a falsely-empty health state before the first tick completes.
type StatusRecord struct {
	SlideshowHealthy bool
	DLSHealthy       bool
	LastSlideshowFP  string
	LastDLSSourceID  string
	UpdatedAt        time.Time
}

// Store wraps a badger.DB for the small, latency-insensitive amount of
// state the Coordinator needs to survive a restart. It is not used on the
// per-tick hot path (§5 hot paths hold locks only long enough to update
// counters) — writes here happen on emergency set/clear and on a slow
// periodic status checkpoint.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) a badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// PutEmergency durably records the current emergency state.
func (s *Store) PutEmergency(state EmergencyState) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(emergencyKey), buf)
	})
}

// GetEmergency returns the last recorded emergency state, or the zero
// value if none has ever been written.
func (s *Store) GetEmergency() (EmergencyState, error) {
	var out EmergencyState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emergencyKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	return out, err
}

// PutStatus durably records the Coordinator's last-known-good status.
func (s *Store) PutStatus(status StatusRecord) error {
	buf, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(statusKey), buf)
	})
}

// GetStatus returns the last recorded status, or the zero value if none
// has ever been written.
func (s *Store) GetStatus() (StatusRecord, error) {
	var out StatusRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(statusKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	return out, err
}
