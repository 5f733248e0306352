package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
)

// ErrDuplicate is returned by PutPending when txHash already has a
// mempool row.
var ErrDuplicate = errors.New("store: duplicate mempool entry")

// PendingTransactionRow is the persisted shape of a pending_transactions
// row. Seq is the insertion sequence backing LIFO snapshot order; it is
// not part of the logical schema in §6 but is needed to keep the
// insertion-order index from growing unboundedly stale.
type PendingTransactionRow struct {
	TxHash      [32]byte
	Transaction chain.Transaction
	Size        int
	Seq         uint64
}

// PutPending inserts a new mempool row keyed by txHash, failing with
// ErrDuplicate if one already exists.
func (s *Store) PutPending(tx *bbolt.Tx, txHash [32]byte, transaction chain.Transaction) error {
	b := tx.Bucket(bucketPendingTx)
	if b.Get(txHash[:]) != nil {
		return ErrDuplicate
	}

	var txBuf bytes.Buffer
	if err := transaction.Encode(&txBuf); err != nil {
		return err
	}

	order := tx.Bucket(bucketPendingTxOrder)
	seq, err := order.NextSequence()
	if err != nil {
		return err
	}
	var seqKey [8]byte
	binary.BigEndian.PutUint64(seqKey[:], seq)
	if err := order.Put(seqKey[:], txHash[:]); err != nil {
		return err
	}

	row := PendingTransactionRow{
		TxHash:      txHash,
		Transaction: transaction,
		Size:        txBuf.Len(),
		Seq:         seq,
	}
	buf, err := encodePendingRow(row)
	if err != nil {
		return err
	}
	return b.Put(txHash[:], buf)
}

// DeletePending removes a mempool row and its order index entry. It is a
// no-op if txHash has no row (the coinbase, which is never in the
// mempool).
func (s *Store) DeletePending(tx *bbolt.Tx, txHash [32]byte) error {
	b := tx.Bucket(bucketPendingTx)
	raw := b.Get(txHash[:])
	if raw == nil {
		return nil
	}
	row, err := decodePendingRow(raw)
	if err != nil {
		return err
	}
	var seqKey [8]byte
	binary.BigEndian.PutUint64(seqKey[:], row.Seq)
	if err := tx.Bucket(bucketPendingTxOrder).Delete(seqKey[:]); err != nil {
		return err
	}
	return b.Delete(txHash[:])
}

// SnapshotMempool returns every pending transaction in LIFO order: the
// most recently inserted row first. This is the committed popping policy
// for the slot proposer.
func (s *Store) SnapshotMempool(tx *bbolt.Tx) ([]PendingTransactionRow, error) {
	order := tx.Bucket(bucketPendingTxOrder)
	pending := tx.Bucket(bucketPendingTx)

	var rows []PendingTransactionRow
	c := order.Cursor()
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		raw := pending.Get(v)
		if raw == nil {
			// Stale order entry for a row already deleted; skip.
			continue
		}
		row, err := decodePendingRow(raw)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func encodePendingRow(row PendingTransactionRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(row.TxHash[:])
	if err := row.Transaction.Encode(&buf); err != nil {
		return nil, err
	}
	binary.Write(&buf, binary.LittleEndian, uint64(row.Size))
	binary.Write(&buf, binary.LittleEndian, row.Seq)
	return buf.Bytes(), nil
}

func decodePendingRow(raw []byte) (PendingTransactionRow, error) {
	r := bytes.NewReader(raw)
	var row PendingTransactionRow
	if _, err := io.ReadFull(r, row.TxHash[:]); err != nil {
		return row, err
	}
	tx, err := chain.DecodeTransaction(r)
	if err != nil {
		return row, err
	}
	row.Transaction = tx
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return row, err
	}
	row.Size = int(size)
	if err := binary.Read(r, binary.LittleEndian, &row.Seq); err != nil {
		return row, err
	}
	return row, nil
}
