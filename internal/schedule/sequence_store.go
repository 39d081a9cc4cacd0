// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package schedule

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSequenceStore is the durable, crash-safe SequenceStateStore backing
// sequential content resolution. A sequence cursor is small and hot (one
// uint64 per channel/program pair) and must survive a process restart
// mid-broadcast-day, so it lives in its own small BadgerDB instance rather
// than the system-of-record database, following the WAL package's use of
// BadgerDB for durable, low-latency local state.
type BadgerSequenceStore struct {
	db *badger.DB
}

// OpenBadgerSequenceStore opens (creating if absent) a BadgerDB instance
// rooted at dir for sequence cursor state.
func OpenBadgerSequenceStore(dir string) (*BadgerSequenceStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open sequence store at %s: %w", dir, err)
	}
	return &BadgerSequenceStore{db: db}, nil
}

func (s *BadgerSequenceStore) Close() error {
	return s.db.Close()
}

func seqKey(channelID, programID string) []byte {
	return []byte(fmt.Sprintf("seq/%s/%s", channelID, programID))
}

// GetPosition returns the last persisted cursor, or 0 if the pair has never
// been advanced. Badger errors (other than key-not-found) are treated as an
// unset cursor; the resolver is idempotent against re-deriving position 0.
func (s *BadgerSequenceStore) GetPosition(channelID, programID string) int {
	var pos int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(seqKey(channelID, programID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < 8 {
				return nil
			}
			pos = int(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	if err != nil {
		return 0
	}
	return pos
}

// SetPosition durably persists the next cursor value. Callers on the hot
// resolution path accept the fsync cost: a lost advance would replay an
// already-aired episode, which episode-selection invariants do not tolerate.
func (s *BadgerSequenceStore) SetPosition(channelID, programID string, index int) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(index))
	_ = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seqKey(channelID, programID), buf)
	})
}
