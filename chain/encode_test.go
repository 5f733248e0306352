package chain_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
)

func sampleTransaction() chain.Transaction {
	var txid [32]byte
	txid[0] = 0xAB
	return chain.Transaction{
		Version: chain.TransactionVersion1,
		Inputs: []chain.TransactionInput{{
			Outpoint:        chain.Outpoint{TxID: txid, Index: 1},
			SignatureScript: script.Script{script.Push([]byte{1, 2, 3})},
		}},
		Outputs: []chain.TransactionOutput{
			{
				Kind:         chain.OutputKindValue,
				Value:        42,
				PubkeyScript: script.BuildP2A([20]byte{1, 2, 3}),
			},
			{
				Kind: chain.OutputKindObject,
				ObjectID: chain.ObjectIdentifier{
					Raw:  [32]byte{9, 9, 9},
					Mode: chain.ObjectModeExisting, PermitIndex: 3,
				},
				DataScript:   script.Script{script.Insert([]byte("claim"))},
				PubkeyScript: script.BuildP2A([20]byte{4, 5, 6}),
			},
		},
		Locktime: 99,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTransaction()

	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf))

	decoded, err := chain.DecodeTransaction(&buf)
	require.NoError(t, err)
	if !reflect.DeepEqual(tx, decoded) {
		t.Fatalf("transaction changed across re-encoding: %v vs %v",
			spew.Sdump(tx), spew.Sdump(decoded))
	}
}

func TestTxIDStableUnderReencoding(t *testing.T) {
	tx := sampleTransaction()

	id1 := chain.HEip191(tx)

	var buf bytes.Buffer
	require.NoError(t, tx.Encode(&buf))
	decoded, err := chain.DecodeTransaction(&buf)
	require.NoError(t, err)

	id2 := chain.HEip191(decoded)
	require.Equal(t, id1, id2)
}

func TestSignableHashBlanksSignatureScripts(t *testing.T) {
	tx := sampleTransaction()
	h1 := tx.SignableHash()

	tx.Inputs[0].SignatureScript = script.Script{script.Push([]byte{9, 9, 9, 9, 9})}
	h2 := tx.SignableHash()

	require.Equal(t, h1, h2, "signable hash must not depend on signature script contents")
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := chain.BlockHeader{
		Version:                 chain.BlockHeaderVersion1,
		PreviousBlockHeaderHash: [32]byte{1, 2, 3},
		Timestamp:               1700000000,
	}
	var buf bytes.Buffer
	require.NoError(t, h.Encode(&buf))
	decoded, err := chain.DecodeBlockHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, h, decoded)
}

func TestFreshObjectIDUsesLittleEndianU32Index(t *testing.T) {
	inputs := []chain.TransactionInput{{
		Outpoint: chain.Outpoint{TxID: [32]byte{1}, Index: 1<<32 + 7},
	}}
	// Only the low 32 bits of a u64 index are serialized, so an index of
	// 2^32+7 derives the same identifier as an index of 7.
	id1 := chain.FreshObjectID(inputs, 0)
	id2 := chain.FreshObjectID(inputs, 0)
	require.Equal(t, id1, id2)

	low := []chain.TransactionInput{{
		Outpoint: chain.Outpoint{TxID: [32]byte{1}, Index: 7},
	}}
	require.Equal(t, id1, chain.FreshObjectID(low, 0))
}
