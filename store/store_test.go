package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
	"github.com/Quible-Network/quible-node/object"
	"github.com/Quible-Network/quible-node/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("memory://")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestUTXOPutGetMarkSpent(t *testing.T) {
	s := openTestStore(t)
	addr := [20]byte{1, 2, 3}
	op := chain.Outpoint{TxID: [32]byte{9}, Index: 2}

	row := store.UTXORow{
		TxID:        op.TxID,
		OutputIndex: op.Index,
		Output: chain.TransactionOutput{
			Kind:         chain.OutputKindValue,
			Value:        7,
			PubkeyScript: script.BuildP2A(addr),
		},
		Owner:    addr,
		HasOwner: true,
	}

	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		return s.PutUTXO(tx, row)
	}))

	var got store.UTXORow
	var ok bool
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		var err error
		got, ok, err = s.GetUTXO(tx, op)
		return err
	}))
	require.True(t, ok)
	require.Equal(t, row.Output.Value, got.Output.Value)
	require.False(t, got.Spent)

	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		return s.MarkSpent(tx, op)
	}))

	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		var err error
		got, ok, err = s.GetUTXO(tx, op)
		return err
	}))
	require.True(t, ok)
	require.True(t, got.Spent)
}

func TestGetUTXOMissing(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		_, ok, err := s.GetUTXO(tx, chain.Outpoint{TxID: [32]byte{1}, Index: 0})
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func TestObjectPutGet(t *testing.T) {
	s := openTestStore(t)
	id := [32]byte{4, 5, 6}
	row := object.Apply(object.NewRow(), script.Script{script.Insert([]byte("claim"))})

	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		return s.PutObject(tx, id, row)
	}))

	var got object.Row
	var ok bool
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		var err error
		got, ok, err = s.GetObject(tx, id)
		return err
	}))
	require.True(t, ok)
	require.Equal(t, row.Claims, got.Claims)
	require.Equal(t, row.CertTTL, got.CertTTL)
}

func TestLatestHeightEmptyStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		_, _, ok, err := s.LatestHeight(tx)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func TestLatestHeightTracksHighestBlock(t *testing.T) {
	s := openTestStore(t)

	header0 := chain.BlockHeader{Version: chain.BlockHeaderVersion1, Timestamp: 1}
	header1 := chain.BlockHeader{
		Version:                 chain.BlockHeaderVersion1,
		PreviousBlockHeaderHash: chain.H(header0),
		Timestamp:               2,
	}

	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		if err := s.PutBlock(tx, chain.H(header0), store.BlockRow{Height: 0, Block: chain.Block{Header: header0}}); err != nil {
			return err
		}
		return s.PutBlock(tx, chain.H(header1), store.BlockRow{Height: 1, Block: chain.Block{Header: header1}})
	}))

	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		height, previousHash, ok, err := s.LatestHeight(tx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint64(1), height)
		require.Equal(t, chain.H(header1), previousHash)
		return nil
	}))
}

func TestForEachUnspentValueOutputFiltersByOwnerAndSpent(t *testing.T) {
	s := openTestStore(t)
	addr := [20]byte{7}
	otherAddr := [20]byte{8}

	rows := []store.UTXORow{
		{TxID: [32]byte{1}, OutputIndex: 0, Owner: addr, HasOwner: true,
			Output: chain.TransactionOutput{Kind: chain.OutputKindValue, Value: 1, PubkeyScript: script.BuildP2A(addr)}},
		{TxID: [32]byte{2}, OutputIndex: 0, Owner: addr, HasOwner: true, Spent: true,
			Output: chain.TransactionOutput{Kind: chain.OutputKindValue, Value: 2, PubkeyScript: script.BuildP2A(addr)}},
		{TxID: [32]byte{3}, OutputIndex: 0, Owner: otherAddr, HasOwner: true,
			Output: chain.TransactionOutput{Kind: chain.OutputKindValue, Value: 3, PubkeyScript: script.BuildP2A(otherAddr)}},
	}
	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		for _, r := range rows {
			if err := s.PutUTXO(tx, r); err != nil {
				return err
			}
		}
		return nil
	}))

	var values []uint64
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		return s.ForEachUnspentValueOutput(tx, addr, func(op chain.Outpoint, value uint64) bool {
			values = append(values, value)
			return true
		})
	}))
	require.Equal(t, []uint64{1}, values)
}

func TestMempoolPutDeleteDuplicate(t *testing.T) {
	s := openTestStore(t)
	txHash := [32]byte{1}
	tx := chain.Transaction{Version: chain.TransactionVersion1}

	require.NoError(t, s.Update(func(dbtx *bbolt.Tx) error {
		return s.PutPending(dbtx, txHash, tx)
	}))

	err := s.Update(func(dbtx *bbolt.Tx) error {
		return s.PutPending(dbtx, txHash, tx)
	})
	require.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, s.Update(func(dbtx *bbolt.Tx) error {
		return s.DeletePending(dbtx, txHash)
	}))

	var rows []store.PendingTransactionRow
	require.NoError(t, s.View(func(dbtx *bbolt.Tx) error {
		var err error
		rows, err = s.SnapshotMempool(dbtx)
		return err
	}))
	require.Empty(t, rows)
}

func TestSnapshotMempoolLIFOOrder(t *testing.T) {
	s := openTestStore(t)

	var hashes [3][32]byte
	for i := range hashes {
		hashes[i] = [32]byte{byte(i + 1)}
	}

	require.NoError(t, s.Update(func(dbtx *bbolt.Tx) error {
		for _, h := range hashes {
			tx := chain.Transaction{Version: chain.TransactionVersion1, Locktime: uint64(h[0])}
			if err := s.PutPending(dbtx, h, tx); err != nil {
				return err
			}
		}
		return nil
	}))

	var rows []store.PendingTransactionRow
	require.NoError(t, s.View(func(dbtx *bbolt.Tx) error {
		var err error
		rows, err = s.SnapshotMempool(dbtx)
		return err
	}))
	require.Len(t, rows, 3)
	// Most recently inserted first.
	require.Equal(t, hashes[2], rows[0].TxHash)
	require.Equal(t, hashes[1], rows[1].TxHash)
	require.Equal(t, hashes[0], rows[2].TxHash)
}

func TestDeletePendingNoopOnMissingRow(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Update(func(dbtx *bbolt.Tx) error {
		return s.DeletePending(dbtx, [32]byte{0xFF})
	}))
}
