package faucet_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
	"github.com/Quible-Network/quible-node/faucet"
	"github.com/Quible-Network/quible-node/sign"
	"github.com/Quible-Network/quible-node/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("memory://")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestRequestOutputNoCoinbaseSignalsRefill(t *testing.T) {
	s := openTestStore(t)
	signer, err := sign.GenerateKey()
	require.NoError(t, err)
	f := faucet.New(s, signer)

	_, err = f.RequestOutput()
	require.ErrorIs(t, err, faucet.ErrNoFaucet)
}

func TestRequestOutputSpendsUnspentCoinbase(t *testing.T) {
	s := openTestStore(t)
	signer, err := sign.GenerateKey()
	require.NoError(t, err)
	f := faucet.New(s, signer)

	coinbaseOp := chain.Outpoint{TxID: [32]byte{1}, Index: 0}
	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		return s.PutUTXO(tx, store.UTXORow{
			TxID:        coinbaseOp.TxID,
			OutputIndex: coinbaseOp.Index,
			Output: chain.TransactionOutput{
				Kind:         chain.OutputKindValue,
				Value:        5,
				PubkeyScript: script.BuildP2A(signer.Address()),
			},
			Owner:    signer.Address(),
			HasOwner: true,
		})
	}))

	out, err := f.RequestOutput()
	require.NoError(t, err)
	require.Equal(t, uint64(5), out.Value)
	require.NotEqual(t, [32]byte{}, out.OwnerSigningKey)

	throwaway, err := sign.ParsePrivateKey(out.OwnerSigningKey[:])
	require.NoError(t, err)

	var rows []store.PendingTransactionRow
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		var err error
		rows, err = s.SnapshotMempool(tx)
		return err
	}))
	require.Len(t, rows, 1)
	require.Equal(t, out.Outpoint.TxID, rows[0].TxHash)
	require.Equal(t, coinbaseOp, rows[0].Transaction.Inputs[0].Outpoint)

	owner, ok := script.OwnerOf(rows[0].Transaction.Outputs[0].PubkeyScript)
	require.True(t, ok)
	require.Equal(t, throwaway.Address(), owner)
}
