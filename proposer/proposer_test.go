package proposer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
	"github.com/Quible-Network/quible-node/proposer"
	"github.com/Quible-Network/quible-node/sign"
	"github.com/Quible-Network/quible-node/store"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("memory://")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestTickZeroMintsCoinbase(t *testing.T) {
	s := openTestStore(t)
	signer, err := sign.GenerateKey()
	require.NoError(t, err)
	p := proposer.New(s, signer, fixedClock{time.Unix(1000, 0)})

	require.NoError(t, p.Tick(0))

	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		height, _, ok, err := s.LatestHeight(tx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint64(0), height)
		return nil
	}))

	var values []uint64
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		return s.ForEachUnspentValueOutput(tx, signer.Address(), func(op chain.Outpoint, value uint64) bool {
			values = append(values, value)
			return true
		})
	}))
	require.Equal(t, []uint64{proposer.CoinbaseValue}, values)
}

func TestTickRefusesOutOfOrderSlot(t *testing.T) {
	s := openTestStore(t)
	signer, err := sign.GenerateKey()
	require.NoError(t, err)
	p := proposer.New(s, signer, fixedClock{time.Unix(1000, 0)})

	// Skipping Tick(0): Tick(1) has no height-0 block to chain from.
	require.Error(t, p.Tick(1))
}

func TestTickIncludesMempoolSpendOfPriorCoinbase(t *testing.T) {
	s := openTestStore(t)
	signer, err := sign.GenerateKey()
	require.NoError(t, err)
	p := proposer.New(s, signer, fixedClock{time.Unix(1000, 0)})

	require.NoError(t, p.Tick(0))

	var coinbaseOp chain.Outpoint
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		return s.ForEachUnspentValueOutput(tx, signer.Address(), func(op chain.Outpoint, value uint64) bool {
			coinbaseOp = op
			return false
		})
	}))

	recipient, err := sign.GenerateKey()
	require.NoError(t, err)

	spend := chain.Transaction{
		Version: chain.TransactionVersion1,
		Outputs: []chain.TransactionOutput{{
			Kind:         chain.OutputKindValue,
			Value:        proposer.CoinbaseValue,
			PubkeyScript: script.BuildP2A(recipient.Address()),
		}},
	}
	spend.Inputs = []chain.TransactionInput{{Outpoint: coinbaseOp}}
	sigHash := spend.SignableHash()
	sig, err := signer.Sign(sigHash)
	require.NoError(t, err)
	spend.Inputs = []chain.TransactionInput{{
		Outpoint:        coinbaseOp,
		SignatureScript: script.BuildP2ASigScript(sig, signer.Address()),
	}}
	spendHash := chain.HEip191(spend)

	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		return s.PutPending(tx, spendHash, spend)
	}))

	require.NoError(t, p.Tick(1))

	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		row, ok, err := s.GetUTXO(tx, coinbaseOp)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, row.Spent)
		return nil
	}))

	var recipientValues []uint64
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		return s.ForEachUnspentValueOutput(tx, recipient.Address(), func(op chain.Outpoint, value uint64) bool {
			recipientValues = append(recipientValues, value)
			return true
		})
	}))
	require.Equal(t, []uint64{proposer.CoinbaseValue}, recipientValues)

	var rows []store.PendingTransactionRow
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		var err error
		rows, err = s.SnapshotMempool(tx)
		return err
	}))
	require.Empty(t, rows, "spent transaction must be evicted from the mempool")
}

func TestTickDigestsObjectOutputDataScript(t *testing.T) {
	s := openTestStore(t)
	signer, err := sign.GenerateKey()
	require.NoError(t, err)
	p := proposer.New(s, signer, fixedClock{time.Unix(1000, 0)})

	require.NoError(t, p.Tick(0))

	var coinbaseOp chain.Outpoint
	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		return s.ForEachUnspentValueOutput(tx, signer.Address(), func(op chain.Outpoint, value uint64) bool {
			coinbaseOp = op
			return false
		})
	}))

	mint := chain.Transaction{Version: chain.TransactionVersion1}
	mint.Inputs = []chain.TransactionInput{{Outpoint: coinbaseOp}}
	objectID := chain.FreshObjectID(mint.Inputs, 0)
	mint.Outputs = []chain.TransactionOutput{{
		Kind:         chain.OutputKindObject,
		ObjectID:     chain.ObjectIdentifier{Raw: objectID, Mode: chain.ObjectModeFresh},
		DataScript:   script.Script{script.Insert([]byte("hello"))},
		PubkeyScript: script.BuildP2A(signer.Address()),
	}}
	sigHash := mint.SignableHash()
	sig, err := signer.Sign(sigHash)
	require.NoError(t, err)
	mint.Inputs[0].SignatureScript = script.BuildP2ASigScript(sig, signer.Address())
	mintHash := chain.HEip191(mint)

	require.NoError(t, s.Update(func(tx *bbolt.Tx) error {
		return s.PutPending(tx, mintHash, mint)
	}))

	require.NoError(t, p.Tick(1))

	require.NoError(t, s.View(func(tx *bbolt.Tx) error {
		row, ok, err := s.GetObject(tx, objectID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, [][]byte{[]byte("hello")}, row.Claims)
		return nil
	}))
}
