package store

import (
	"errors"

	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/engine"
)

// IncludedTx pairs a validated transaction with its hash, as accepted by
// the engine during a slot tick.
type IncludedTx struct {
	Hash        [32]byte
	Transaction chain.Transaction
}

// InvalidTx pairs a rejected transaction's hash with its rejection
// reason.
type InvalidTx struct {
	Hash [32]byte
	Err  error
}

// SnapshotContext implements engine.ExecutionContext over one slot's
// mempool snapshot and the store's committed UTXO set, read inside a
// single bbolt transaction. Spent-in-block tracking lives here, not in
// the store proper, so no additional store-level locking is needed to
// serialize a slot tick.
type SnapshotContext struct {
	tx      *bbolt.Tx
	store   *Store
	pending []PendingTransactionRow
	next    int

	spentInBlock map[chain.Outpoint]bool

	Included []IncludedTx
	Invalid  []InvalidTx
}

// NewSnapshotContext snapshots the mempool in LIFO order and returns a
// context ready to be driven by engine.Run, all within tx.
func NewSnapshotContext(tx *bbolt.Tx, s *Store) (*SnapshotContext, error) {
	rows, err := s.SnapshotMempool(tx)
	if err != nil {
		return nil, err
	}
	return &SnapshotContext{
		tx:           tx,
		store:        s,
		pending:      rows,
		spentInBlock: make(map[chain.Outpoint]bool),
	}, nil
}

func (c *SnapshotContext) NextPending() (txHash [32]byte, tx chain.Transaction, ok bool) {
	if c.next >= len(c.pending) {
		return txHash, tx, false
	}
	row := c.pending[c.next]
	c.next++
	return row.TxHash, row.Transaction, true
}

func (c *SnapshotContext) FetchUnspent(outpoint chain.Outpoint) (chain.TransactionOutput, error) {
	if c.spentInBlock[outpoint] {
		return chain.TransactionOutput{}, engine.ErrAlreadySpent
	}
	row, ok, err := c.store.GetUTXO(c.tx, outpoint)
	if err != nil {
		return chain.TransactionOutput{}, err
	}
	if !ok {
		return chain.TransactionOutput{}, engine.ErrNotFound
	}
	if row.Spent {
		return chain.TransactionOutput{}, engine.ErrAlreadySpent
	}
	return row.Output, nil
}

func (c *SnapshotContext) Include(txHash [32]byte) {
	tx := c.transactionFor(txHash)
	for _, in := range tx.Inputs {
		c.spentInBlock[in.Outpoint] = true
	}
	c.Included = append(c.Included, IncludedTx{Hash: txHash, Transaction: tx})
}

func (c *SnapshotContext) RecordInvalid(txHash [32]byte, err error) {
	c.Invalid = append(c.Invalid, InvalidTx{Hash: txHash, Err: err})
}

func (c *SnapshotContext) transactionFor(txHash [32]byte) chain.Transaction {
	for _, row := range c.pending {
		if row.TxHash == txHash {
			return row.Transaction
		}
	}
	// Include is only ever called by the engine with a hash it obtained
	// from NextPending over this same snapshot.
	panic(errors.New("store: Include called with unknown tx hash"))
}
