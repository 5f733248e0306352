// Package faucet mints a throwaway-key Value output by spending one of
// the node's own unspent coinbases, handing the new signing key back to
// the caller over RPC. This is a development convenience: the throwaway
// key crosses the wire in plaintext, by design.
package faucet

import (
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Quible-Network/quible-node/chain"
	"github.com/Quible-Network/quible-node/chain/script"
	"github.com/Quible-Network/quible-node/logging"
	"github.com/Quible-Network/quible-node/sign"
	"github.com/Quible-Network/quible-node/store"
)

// ErrNoFaucet is returned when the node currently holds no unspent
// coinbase to spend. RequestOutput also sends a non-blocking refill signal
// to Run, which only logs it. A later request succeeds once the proposer
// has minted a coinbase that is still unspent.
var ErrNoFaucet = errors.New("faucet: no unspent coinbase available")

// Output is the response to requestFaucetOutput.
type Output struct {
	Outpoint        chain.Outpoint
	Value           uint64
	OwnerSigningKey [32]byte
}

// Faucet composes a Store and the node's own signer to mint faucet
// outputs on request.
type Faucet struct {
	store      *store.Store
	nodeSigner *sign.PrivateKey
	refill     chan struct{}
}

// New constructs a Faucet. Call Run in a goroutine to service async
// refill signals raised by RequestOutput.
func New(s *store.Store, nodeSigner *sign.PrivateKey) *Faucet {
	return &Faucet{store: s, nodeSigner: nodeSigner, refill: make(chan struct{}, 1)}
}

// Run services refill signals until done is closed. Each signal produces
// a log line and nothing else: Run creates no transaction and does not
// change mempool ordering.
func (f *Faucet) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-f.refill:
			logging.Log.Infof("faucet: refill requested, no unspent coinbase on hand")
		}
	}
}

// RequestOutput implements §4.8/§4.9: find an unspent coinbase owned by
// the node, spend it into a fresh throwaway key, and submit the spend to
// the mempool.
func (f *Faucet) RequestOutput() (Output, error) {
	nodeAddr := f.nodeSigner.Address()

	var coinbase chain.Outpoint
	var coinbaseValue uint64
	found := false

	err := f.store.View(func(tx *bbolt.Tx) error {
		return f.store.ForEachUnspentValueOutput(tx, nodeAddr, func(op chain.Outpoint, value uint64) bool {
			coinbase, coinbaseValue, found = op, value, true
			return false // stop at the first match
		})
	})
	if err != nil {
		return Output{}, fmt.Errorf("faucet: scan utxos: %w", err)
	}
	if !found {
		select {
		case f.refill <- struct{}{}:
		default:
		}
		return Output{}, ErrNoFaucet
	}

	throwaway, err := sign.GenerateKey()
	if err != nil {
		return Output{}, fmt.Errorf("faucet: generate throwaway key: %w", err)
	}

	unsigned := chain.Transaction{
		Version: chain.TransactionVersion1,
		Inputs: []chain.TransactionInput{{
			Outpoint: coinbase,
		}},
		Outputs: []chain.TransactionOutput{{
			Kind:         chain.OutputKindValue,
			Value:        coinbaseValue,
			PubkeyScript: script.BuildP2A(throwaway.Address()),
		}},
		Locktime: 0,
	}

	sig, err := f.nodeSigner.Sign(unsigned.SignableHash())
	if err != nil {
		return Output{}, fmt.Errorf("faucet: sign spend: %w", err)
	}
	unsigned.Inputs[0].SignatureScript = script.BuildP2ASigScript(sig, nodeAddr)

	txHash := chain.HEip191(unsigned)

	err = f.store.Update(func(tx *bbolt.Tx) error {
		if err := f.store.PutPending(tx, txHash, unsigned); err != nil {
			return err
		}
		return f.store.PutFaucetOutput(tx, store.IntermediateFaucetOutputRow{
			TransactionHash: txHash,
			OutputIndex:     0,
			OwnerSigningKey: padKey(throwaway.Bytes()),
			Timestamp:       time.Now().Unix(),
		})
	})
	if err != nil {
		return Output{}, fmt.Errorf("faucet: submit spend: %w", err)
	}

	return Output{
		Outpoint:        chain.Outpoint{TxID: txHash, Index: 0},
		Value:           coinbaseValue,
		OwnerSigningKey: padKey(throwaway.Bytes()),
	}, nil
}

func padKey(raw []byte) [32]byte {
	var out [32]byte
	copy(out[:], raw)
	return out
}
