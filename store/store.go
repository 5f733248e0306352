// Package store is the bbolt-backed persistence layer realizing the six
// logical tables of the ledger: blocks, pending_transactions,
// transaction_outputs, objects, intermediate_faucet_outputs, and
// tracker_pings.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/object"
)

// Store wraps a bbolt database opened over the buckets in buckets.go.
type Store struct {
	db       *bbolt.DB
	ephemeral string // non-empty when backed by a temp file that Close should remove
}

// Open parses a QUIBLE_DATABASE_URL value and opens (creating if absent)
// the backing bbolt database. Two schemes are recognized:
//
//	bolt://path/to/file.db  - a bbolt file at the given path
//	memory://               - a temp-file-backed bbolt database, removed on Close
//
// bbolt has no native in-memory mode, so "memory" is realized as a
// throwaway file under os.TempDir, matching the spec's "default
// in-memory" database for development and tests.
func Open(databaseURL string) (*Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "bolt://"):
		path := strings.TrimPrefix(databaseURL, "bolt://")
		db, err := bbolt.Open(path, 0600, nil)
		if err != nil {
			return nil, fmt.Errorf("store: open %s: %w", path, err)
		}
		return newStore(db, "")
	case strings.HasPrefix(databaseURL, "memory://"), databaseURL == "":
		f, err := os.CreateTemp("", "quible-*.db")
		if err != nil {
			return nil, fmt.Errorf("store: create temp db: %w", err)
		}
		path := f.Name()
		f.Close()
		db, err := bbolt.Open(path, 0600, nil)
		if err != nil {
			return nil, fmt.Errorf("store: open %s: %w", path, err)
		}
		return newStore(db, path)
	default:
		return nil, fmt.Errorf("store: unrecognized database url %q", databaseURL)
	}
}

func newStore(db *bbolt.DB, ephemeral string) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &Store{db: db, ephemeral: ephemeral}, nil
}

// Close closes the underlying database, removing the backing file if it
// was a temp file opened for a memory:// URL.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.ephemeral != "" {
		os.Remove(s.ephemeral)
	}
	return err
}

// outpointKey renders the "txid_hex:index" primary key used by the
// transaction_outputs table.
func outpointKey(txid [32]byte, index uint64) []byte {
	return []byte(fmt.Sprintf("%x:%d", txid[:], index))
}

// UTXORow is the persisted shape of a transaction_outputs row.
type UTXORow struct {
	TxID        [32]byte
	OutputIndex uint64
	Output      chain.TransactionOutput
	Owner       [20]byte
	HasOwner    bool
	Spent       bool
}

// PutUTXO inserts or overwrites a UTXO row.
func (s *Store) PutUTXO(tx *bbolt.Tx, row UTXORow) error {
	b := tx.Bucket(bucketUTXOs)
	buf, err := encodeUTXORow(row)
	if err != nil {
		return err
	}
	return b.Put(outpointKey(row.TxID, row.OutputIndex), buf)
}

// GetUTXO fetches a UTXO row by outpoint, returning ok=false if absent.
func (s *Store) GetUTXO(tx *bbolt.Tx, op chain.Outpoint) (UTXORow, bool, error) {
	b := tx.Bucket(bucketUTXOs)
	raw := b.Get(outpointKey(op.TxID, op.Index))
	if raw == nil {
		return UTXORow{}, false, nil
	}
	row, err := decodeUTXORow(raw)
	if err != nil {
		return UTXORow{}, false, err
	}
	return row, true, nil
}

// MarkSpent flips a UTXO's spent flag to true.
func (s *Store) MarkSpent(tx *bbolt.Tx, op chain.Outpoint) error {
	row, ok, err := s.GetUTXO(tx, op)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("store: mark spent: no such outpoint")
	}
	row.Spent = true
	return s.PutUTXO(tx, row)
}

// GetObject fetches an object row by id, returning ok=false if absent.
func (s *Store) GetObject(tx *bbolt.Tx, objectID [32]byte) (object.Row, bool, error) {
	b := tx.Bucket(bucketObjects)
	raw := b.Get(objectID[:])
	if raw == nil {
		return object.Row{}, false, nil
	}
	row, err := decodeObjectRow(raw)
	if err != nil {
		return object.Row{}, false, err
	}
	return row, true, nil
}

// PutObject inserts or overwrites an object row.
func (s *Store) PutObject(tx *bbolt.Tx, objectID [32]byte, row object.Row) error {
	b := tx.Bucket(bucketObjects)
	buf, err := encodeObjectRow(row)
	if err != nil {
		return err
	}
	return b.Put(objectID[:], buf)
}

// BlockRow is the persisted shape of a blocks row.
type BlockRow struct {
	Height uint64
	Block  chain.Block
}

// PutBlock inserts a block row keyed by its header hash.
func (s *Store) PutBlock(tx *bbolt.Tx, headerHash [32]byte, row BlockRow) error {
	b := tx.Bucket(bucketBlocks)
	buf, err := encodeBlockRow(row)
	if err != nil {
		return err
	}
	return b.Put(headerHash[:], buf)
}

// LatestHeight returns the height of the most recently committed block and
// ok=true, or ok=false if no blocks have been committed.
func (s *Store) LatestHeight(tx *bbolt.Tx) (height uint64, previousHash [32]byte, ok bool, err error) {
	b := tx.Bucket(bucketBlocks)
	c := b.Cursor()
	var best *BlockRow
	for k, v := c.First(); k != nil; k, v = c.Next() {
		row, derr := decodeBlockRow(v)
		if derr != nil {
			return 0, previousHash, false, derr
		}
		if best == nil || row.Height > best.Height {
			rowCopy := row
			best = &rowCopy
		}
	}
	if best == nil {
		return 0, previousHash, false, nil
	}
	return best.Height, hashHeader(best.Block.Header), true, nil
}

func hashHeader(h chain.BlockHeader) [32]byte { return chain.H(h) }

// IntermediateFaucetOutputRow is the persisted shape of an
// intermediate_faucet_outputs row.
type IntermediateFaucetOutputRow struct {
	TransactionHash  [32]byte
	OutputIndex      uint64
	OwnerSigningKey  [32]byte
	Timestamp        int64
}

// PutFaucetOutput records a minted throwaway faucet output.
func (s *Store) PutFaucetOutput(tx *bbolt.Tx, row IntermediateFaucetOutputRow) error {
	b := tx.Bucket(bucketFaucetOutputs)
	key := outpointKey(row.TransactionHash, row.OutputIndex)
	return b.Put(key, encodeFaucetRow(row))
}

// TrackerPing is a single observed peer ping, appended to an
// insertion-ordered log.
type TrackerPing struct {
	PeerID    string
	Timestamp int64
}

// PutTrackerPing appends a ping observation.
func (s *Store) PutTrackerPing(tx *bbolt.Tx, ping TrackerPing) error {
	b := tx.Bucket(bucketTrackerPings)
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return b.Put(key[:], encodeTrackerPing(ping))
}

// ForEachUnspentValueOutput scans the transaction_outputs table for
// unspent Value outputs owned by addr, invoking fn with each outpoint and
// value until fn returns false or the scan is exhausted. Iteration order
// is bucket key order (txid:index), not insertion order; callers that
// need "the" single coinbase to spend just take the first match.
func (s *Store) ForEachUnspentValueOutput(tx *bbolt.Tx, addr [20]byte, fn func(op chain.Outpoint, value uint64) bool) error {
	b := tx.Bucket(bucketUTXOs)
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		row, err := decodeUTXORow(v)
		if err != nil {
			return err
		}
		if row.Spent || row.Output.Kind != chain.OutputKindValue {
			continue
		}
		if !row.HasOwner || row.Owner != addr {
			continue
		}
		op := chain.Outpoint{TxID: row.TxID, Index: row.OutputIndex}
		if !fn(op, row.Output.Value) {
			return nil
		}
	}
	return nil
}

// View and Update expose the underlying bbolt transaction helpers so
// callers outside the package (the proposer, RPC handlers) can compose
// multiple Store operations atomically.
func (s *Store) View(fn func(tx *bbolt.Tx) error) error   { return s.db.View(fn) }
func (s *Store) Update(fn func(tx *bbolt.Tx) error) error { return s.db.Update(fn) }
